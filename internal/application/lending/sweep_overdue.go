package lending

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
)

// SweepOverdueLoansUseCase 逾期清扫用例
// 设计说明:
// 1. 原系统由MySQL事件每日调用存储过程批量UPDATE,这里改为
//    显式调度入口:由Scheduler按cron调用,也可人工触发补扫
// 2. 幂等性:每条候选用条件UPDATE(WHERE status='borrowed')转换,
//    已被并发清扫或刚好归还的记录不会二次命中,也就不会重复发事件
// 3. 单条失败只记日志跳过,不中断整轮清扫
// 4. 此处不计罚款:罚款在归还时按实际逾期天数结算
type SweepOverdueLoansUseCase struct {
	loanRepo loan.Repository
	sink     audit.Sink
}

// NewSweepOverdueLoansUseCase 创建逾期清扫用例
func NewSweepOverdueLoansUseCase(loanRepo loan.Repository, sink audit.Sink) *SweepOverdueLoansUseCase {
	return &SweepOverdueLoansUseCase{loanRepo: loanRepo, sink: sink}
}

// Execute 执行一轮逾期清扫,返回实际转换的记录数
func (uc *SweepOverdueLoansUseCase) Execute(ctx context.Context, today time.Time) (int, error) {
	candidates, err := uc.loanRepo.FindOverdueCandidates(ctx, today)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for _, record := range candidates {
		ok, err := uc.loanRepo.MarkOverdue(ctx, record.ID)
		if err != nil {
			log.Printf("逾期清扫跳过记录%d: %v", record.ID, err)
			continue
		}
		if !ok {
			// 已被并发清扫或已归还
			continue
		}

		transitioned++
		uc.sink.Emit(ctx, systemEvent(
			audit.EventLoanOverdue, audit.TargetLoan, record.ID,
			fmt.Sprintf("借阅记录%d逾期,应还日期%s",
				record.ID, record.DueDate.Format("2006-01-02")),
			today,
		))
	}

	// 每轮清扫后对账回填在借总数指标
	if open, err := uc.loanRepo.CountOpen(ctx); err == nil {
		metrics.SetOpenLoans(open)
	} else {
		log.Printf("统计在借总数失败: %v", err)
	}

	return transitioned, nil
}
