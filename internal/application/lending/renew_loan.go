package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/infrastructure/config"
)

// RenewLoanUseCase 续借用例
// 业务规则:
// 1. 仅borrowed可续借:逾期须先归还结清,已关闭的记录不可续借
// 2. 续借次数受策略上限约束(默认2次)
// 3. 先到先得:他人排队预约中的图书不可续借
type RenewLoanUseCase struct {
	txManager Transactor
	loanRepo  loan.Repository
	rsvRepo   reservation.Repository
	sink      audit.Sink
	policy    config.PolicyConfig
	now       func() time.Time
}

// NewRenewLoanUseCase 创建续借用例
func NewRenewLoanUseCase(
	txManager Transactor,
	loanRepo loan.Repository,
	rsvRepo reservation.Repository,
	sink audit.Sink,
	policy config.PolicyConfig,
) *RenewLoanUseCase {
	return &RenewLoanUseCase{
		txManager: txManager,
		loanRepo:  loanRepo,
		rsvRepo:   rsvRepo,
		sink:      sink,
		policy:    policy,
		now:       time.Now,
	}
}

// RenewLoanRequest 续借请求DTO
type RenewLoanRequest struct {
	LoanID     uint // 借阅记录ID
	OperatorID uint // 经办馆员ID
}

// Execute 执行续借
func (uc *RenewLoanUseCase) Execute(ctx context.Context, req RenewLoanRequest) (result *loan.LoanRecord, err error) {
	defer func() { observeOperation("renew", err) }()

	today := uc.now()

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		record, err := uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}

		// 预约冲突检查只对可续借的记录做:
		// 逾期/已关闭的记录应返回自身的状态错误,不是冲突错误
		if record.Status == loan.StatusBorrowed {
			waiting, err := uc.rsvRepo.CountActiveForBookExcluding(txCtx, record.BookID, record.ReaderID)
			if err != nil {
				return err
			}
			if waiting > 0 {
				return loan.ErrReservationConflict
			}
		}

		if err := record.Renew(uc.policy.RenewExtendDays, uc.policy.RenewLimit); err != nil {
			return err
		}
		if err := uc.loanRepo.Update(txCtx, record); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.sink.Emit(ctx, operatorEvent(
		audit.EventRenewed, req.OperatorID, audit.TargetLoan, result.ID,
		fmt.Sprintf("借阅记录%d第%d次续借,新应还日期%s",
			result.ID, result.RenewCount, result.DueDate.Format("2006-01-02")),
		today,
	))

	return result, nil
}
