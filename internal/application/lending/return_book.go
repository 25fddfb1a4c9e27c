package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/metrics"
)

// ReturnBookUseCase 还书用例
// 还书除了关闭台账记录,还承担两件事:
// 1. 逾期计费:罚款 = 逾期天数 × 日费率,以书价封顶,落在记录的FineAmount
// 2. 预约履约:队首active预约出队进入保留期(FIFO)
type ReturnBookUseCase struct {
	txManager Transactor
	loanRepo  loan.Repository
	bookRepo  book.Repository
	rsvRepo   reservation.Repository
	fineCalc  loan.FineCalculator
	sink      audit.Sink
	policy    config.PolicyConfig
	now       func() time.Time
}

// NewReturnBookUseCase 创建还书用例
func NewReturnBookUseCase(
	txManager Transactor,
	loanRepo loan.Repository,
	bookRepo book.Repository,
	rsvRepo reservation.Repository,
	fineCalc loan.FineCalculator,
	sink audit.Sink,
	policy config.PolicyConfig,
) *ReturnBookUseCase {
	return &ReturnBookUseCase{
		txManager: txManager,
		loanRepo:  loanRepo,
		bookRepo:  bookRepo,
		rsvRepo:   rsvRepo,
		fineCalc:  fineCalc,
		sink:      sink,
		policy:    policy,
		now:       time.Now,
	}
}

// ReturnBookRequest 还书请求DTO
type ReturnBookRequest struct {
	LoanID     uint // 借阅记录ID
	OperatorID uint // 经办馆员ID
}

// ReturnResult 还书结果
type ReturnResult struct {
	Record    *loan.LoanRecord         // 已关闭的借阅记录
	Fine      int64                    // 本次产生的罚款(分,0表示按期归还)
	Fulfilled *reservation.Reservation // 本次履约的预约(无人排队为nil)
}

// Execute 执行还书
func (uc *ReturnBookUseCase) Execute(ctx context.Context, req ReturnBookRequest) (result *ReturnResult, err error) {
	defer func() { observeOperation("return", err) }()

	today := uc.now()

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定借阅记录(归还与续借竞争同一条记录)
		record, err := uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		if !record.Status.IsOpen() {
			return loan.ErrLoanAlreadyClosed
		}

		// 2. 锁定图书行(与并发借阅串行化)
		b, err := uc.bookRepo.LockByID(txCtx, record.BookID)
		if err != nil {
			return err
		}

		// 3. 逾期计费(按期归还罚款为0)
		var fine int64
		if record.IsOverdueAsOf(today) {
			fine = uc.fineCalc.Calculate(record.DueDate, today, b.Price)
		}

		// 4. 关闭台账记录
		if err := record.Return(today, fine); err != nil {
			return err
		}
		if err := uc.loanRepo.Update(txCtx, record); err != nil {
			return err
		}

		// 5. 预约履约(FIFO出队)
		next, err := uc.rsvRepo.OldestActiveFor(txCtx, record.BookID)
		if err != nil {
			return err
		}

		result = &ReturnResult{Record: record, Fine: fine}

		if next == nil {
			// 无人排队,书回架
			if err := uc.bookRepo.UpdateStatus(txCtx, record.BookID, book.StatusAvailable); err != nil {
				return err
			}
			return nil
		}

		// 队首预约进入保留期
		if err := next.Fulfill(today, uc.policy.HoldWindowDays); err != nil {
			return err
		}

		if uc.policy.AutoClaim {
			// auto_claim模式:直接为预约读者建保留借阅记录,
			// 书不回架,等读者到馆领取(reserved → borrowed)
			if err := next.Claim(today); err != nil {
				return err
			}
			if err := uc.rsvRepo.Update(txCtx, next); err != nil {
				return err
			}
			holdLoan := loan.NewHoldRecord(next.ReaderID, record.BookID, today, uc.policy.HoldWindowDays)
			if err := uc.loanRepo.Create(txCtx, holdLoan); err != nil {
				return err
			}
			// 图书状态保持borrowed(被保留记录占用)
		} else {
			// 保留模式:书回架但被保留,保留期内只有该读者可借
			if err := uc.rsvRepo.Update(txCtx, next); err != nil {
				return err
			}
			if err := uc.bookRepo.UpdateStatus(txCtx, record.BookID, book.StatusAvailable); err != nil {
				return err
			}
		}

		result.Fulfilled = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddFine(result.Fine)

	uc.sink.Emit(ctx, operatorEvent(
		audit.EventReturned, req.OperatorID, audit.TargetLoan, result.Record.ID,
		fmt.Sprintf("读者%d归还图书%d,罚款%d分",
			result.Record.ReaderID, result.Record.BookID, result.Fine),
		today,
	))
	if result.Fulfilled != nil {
		uc.sink.Emit(ctx, operatorEvent(
			audit.EventReservationFulfilled, req.OperatorID, audit.TargetReservation, result.Fulfilled.ID,
			fmt.Sprintf("图书%d的预约履约,保留至%s",
				result.Fulfilled.BookID, result.Fulfilled.ExpiryDate.Format("2006-01-02")),
			today,
		))
	}

	return result, nil
}
