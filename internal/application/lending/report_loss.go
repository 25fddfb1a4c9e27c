package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
)

// ReportLossUseCase 挂失/损毁登记用例
// 在借记录转lost/damaged,图书同步下架,
// 罚款先按书价预置(赔偿价),馆员可再通过ApplyFine调整结案
type ReportLossUseCase struct {
	txManager Transactor
	loanRepo  loan.Repository
	bookRepo  book.Repository
	sink      audit.Sink
	now       func() time.Time
}

// NewReportLossUseCase 创建挂失登记用例
func NewReportLossUseCase(
	txManager Transactor,
	loanRepo loan.Repository,
	bookRepo book.Repository,
	sink audit.Sink,
) *ReportLossUseCase {
	return &ReportLossUseCase{
		txManager: txManager,
		loanRepo:  loanRepo,
		bookRepo:  bookRepo,
		sink:      sink,
		now:       time.Now,
	}
}

// ReportLossRequest 挂失请求DTO
type ReportLossRequest struct {
	LoanID     uint // 借阅记录ID
	Damaged    bool // true=损毁,false=丢失
	OperatorID uint // 经办馆员ID
}

// Execute 执行挂失登记
func (uc *ReportLossUseCase) Execute(ctx context.Context, req ReportLossRequest) (result *loan.LoanRecord, err error) {
	defer func() { observeOperation("report_loss", err) }()

	today := uc.now()

	loanTarget := loan.StatusLost
	bookTarget := book.StatusLost
	eventType := audit.EventLoanLost
	if req.Damaged {
		loanTarget = loan.StatusDamaged
		bookTarget = book.StatusDamaged
		eventType = audit.EventLoanDamaged
	}

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		record, err := uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		if !record.Status.IsOpen() {
			return loan.ErrLoanAlreadyClosed
		}

		b, err := uc.bookRepo.LockByID(txCtx, record.BookID)
		if err != nil {
			return err
		}

		if err := record.TransitionTo(loanTarget); err != nil {
			return err
		}
		// 赔偿价预置为书价
		record.FineAmount = b.Price
		if err := uc.loanRepo.Update(txCtx, record); err != nil {
			return err
		}
		if err := uc.bookRepo.UpdateStatus(txCtx, record.BookID, bookTarget); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddFine(result.FineAmount)

	uc.sink.Emit(ctx, operatorEvent(
		eventType, req.OperatorID, audit.TargetLoan, result.ID,
		fmt.Sprintf("图书%d登记为%s,赔偿价%d分", result.BookID, loanTarget, result.FineAmount),
		today,
	))

	return result, nil
}
