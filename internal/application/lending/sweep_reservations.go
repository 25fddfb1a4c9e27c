package lending

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
)

// SweepExpiredReservationsUseCase 预约清扫用例
// 三类回收,均幂等,单条失败记日志跳过:
// 1. 排队超期:active且过了预约有效期 → expired
// 2. 保留超期:fulfilled未领取且过了保留期 → expired,书恢复公开可借
// 3. 保留借阅超期(auto_claim模式产物):reserved记录过了保留期 →
//    returned,书回架;这一类涉及图书状态,需要事务
type SweepExpiredReservationsUseCase struct {
	txManager Transactor
	rsvRepo   reservation.Repository
	loanRepo  loan.Repository
	bookRepo  book.Repository
	sink      audit.Sink
}

// NewSweepExpiredReservationsUseCase 创建预约清扫用例
func NewSweepExpiredReservationsUseCase(
	txManager Transactor,
	rsvRepo reservation.Repository,
	loanRepo loan.Repository,
	bookRepo book.Repository,
	sink audit.Sink,
) *SweepExpiredReservationsUseCase {
	return &SweepExpiredReservationsUseCase{
		txManager: txManager,
		rsvRepo:   rsvRepo,
		loanRepo:  loanRepo,
		bookRepo:  bookRepo,
		sink:      sink,
	}
}

// Execute 执行一轮预约清扫,返回实际转换的记录数
func (uc *SweepExpiredReservationsUseCase) Execute(ctx context.Context, today time.Time) (int, error) {
	transitioned := 0

	// 1. 排队超期的预约
	expired, err := uc.rsvRepo.FindExpiredCandidates(ctx, today)
	if err != nil {
		return transitioned, err
	}
	for _, rsv := range expired {
		ok, err := uc.rsvRepo.MarkExpired(ctx, rsv.ID, reservation.StatusActive)
		if err != nil {
			log.Printf("预约清扫跳过记录%d: %v", rsv.ID, err)
			continue
		}
		if !ok {
			continue
		}
		transitioned++
		uc.sink.Emit(ctx, systemEvent(
			audit.EventReservationExpired, audit.TargetReservation, rsv.ID,
			fmt.Sprintf("读者%d对图书%d的预约超期作废", rsv.ReaderID, rsv.BookID),
			today,
		))
	}

	// 2. 保留超期的预约(未领取)
	lapsedHolds, err := uc.rsvRepo.FindLapsedHolds(ctx, today)
	if err != nil {
		return transitioned, err
	}
	for _, rsv := range lapsedHolds {
		ok, err := uc.rsvRepo.MarkExpired(ctx, rsv.ID, reservation.StatusFulfilled)
		if err != nil {
			log.Printf("保留清扫跳过记录%d: %v", rsv.ID, err)
			continue
		}
		if !ok {
			continue
		}
		transitioned++
		uc.sink.Emit(ctx, systemEvent(
			audit.EventHoldLapsed, audit.TargetReservation, rsv.ID,
			fmt.Sprintf("读者%d未在保留期内领取图书%d,保留作废", rsv.ReaderID, rsv.BookID),
			today,
		))
	}

	// 3. 保留借阅记录超期(存在即处理,不看当前auto_claim开关,
	//    开关切换后历史保留记录仍能被回收)
	lapsedLoans, err := uc.loanRepo.FindLapsedHolds(ctx, today)
	if err != nil {
		return transitioned, err
	}
	for _, record := range lapsedLoans {
		ok, err := uc.releaseHoldLoan(ctx, record.ID, today)
		if err != nil {
			log.Printf("保留借阅清扫跳过记录%d: %v", record.ID, err)
			continue
		}
		if !ok {
			continue
		}
		transitioned++
		uc.sink.Emit(ctx, systemEvent(
			audit.EventHoldLapsed, audit.TargetLoan, record.ID,
			fmt.Sprintf("读者%d未在保留期内领取图书%d,图书回架", record.ReaderID, record.BookID),
			today,
		))
	}

	return transitioned, nil
}

// releaseHoldLoan 回收一条超期的保留借阅记录(reserved → returned,书回架)
// 事务内重新锁定并校验状态,与并发领取(reserved → borrowed)串行化;
// 返回是否实际发生了回收
func (uc *SweepExpiredReservationsUseCase) releaseHoldLoan(ctx context.Context, loanID uint, today time.Time) (bool, error) {
	released := false
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		record, err := uc.loanRepo.LockByID(txCtx, loanID)
		if err != nil {
			return err
		}
		if record.Status != loan.StatusReserved {
			// 已被领取或已回收
			return nil
		}
		if err := record.Return(today, 0); err != nil {
			return err
		}
		if err := uc.loanRepo.Update(txCtx, record); err != nil {
			return err
		}
		if err := uc.bookRepo.UpdateStatus(txCtx, record.BookID, book.StatusAvailable); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}
