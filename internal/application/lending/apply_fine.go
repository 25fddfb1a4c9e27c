package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
)

// ApplyFineUseCase 人工罚款结案用例
// 馆员对逾期/丢失/损毁的记录核定最终罚款金额,记录转fined终态;
// 金额可以覆盖之前预置的赔偿价(如旧书酌情减免)
type ApplyFineUseCase struct {
	txManager Transactor
	loanRepo  loan.Repository
	sink      audit.Sink
	now       func() time.Time
}

// NewApplyFineUseCase 创建罚款结案用例
func NewApplyFineUseCase(
	txManager Transactor,
	loanRepo loan.Repository,
	sink audit.Sink,
) *ApplyFineUseCase {
	return &ApplyFineUseCase{
		txManager: txManager,
		loanRepo:  loanRepo,
		sink:      sink,
		now:       time.Now,
	}
}

// ApplyFineRequest 罚款请求DTO
type ApplyFineRequest struct {
	LoanID     uint  // 借阅记录ID
	Amount     int64 // 罚款金额(分)
	OperatorID uint  // 经办馆员ID
}

// Execute 执行罚款结案
func (uc *ApplyFineUseCase) Execute(ctx context.Context, req ApplyFineRequest) (result *loan.LoanRecord, err error) {
	defer func() { observeOperation("apply_fine", err) }()

	if req.Amount <= 0 {
		return nil, loan.ErrInvalidFineAmount
	}

	today := uc.now()

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		record, err := uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}

		// 转换表限定只有overdue/lost/damaged可结案
		if err := record.TransitionTo(loan.StatusFined); err != nil {
			return err
		}
		record.FineAmount = req.Amount
		if err := uc.loanRepo.Update(txCtx, record); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddFine(req.Amount)

	uc.sink.Emit(ctx, operatorEvent(
		audit.EventFineApplied, req.OperatorID, audit.TargetLoan, result.ID,
		fmt.Sprintf("借阅记录%d罚款结案,金额%d分", result.ID, req.Amount),
		today,
	))

	return result, nil
}
