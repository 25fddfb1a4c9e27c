package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reader"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/infrastructure/config"
)

// ReserveBookUseCase 预约用例
// 业务规则:
// 1. 只有已借出的图书可预约:在架图书应直接借阅,丢失/损毁不开放预约
// 2. 同一读者对同一图书不可重复排队
// 3. 在借+排队总量受策略上限约束(防囤书)
type ReserveBookUseCase struct {
	txManager  Transactor
	bookRepo   book.Repository
	readerRepo reader.Repository
	loanRepo   loan.Repository
	rsvRepo    reservation.Repository
	sink       audit.Sink
	policy     config.PolicyConfig
	now        func() time.Time
}

// NewReserveBookUseCase 创建预约用例
func NewReserveBookUseCase(
	txManager Transactor,
	bookRepo book.Repository,
	readerRepo reader.Repository,
	loanRepo loan.Repository,
	rsvRepo reservation.Repository,
	sink audit.Sink,
	policy config.PolicyConfig,
) *ReserveBookUseCase {
	return &ReserveBookUseCase{
		txManager:  txManager,
		bookRepo:   bookRepo,
		readerRepo: readerRepo,
		loanRepo:   loanRepo,
		rsvRepo:    rsvRepo,
		sink:       sink,
		policy:     policy,
		now:        time.Now,
	}
}

// ReserveBookRequest 预约请求DTO
type ReserveBookRequest struct {
	ReaderID   uint // 读者ID
	BookID     uint // 图书ID
	OperatorID uint // 经办馆员ID
}

// Execute 执行预约
func (uc *ReserveBookUseCase) Execute(ctx context.Context, req ReserveBookRequest) (result *reservation.Reservation, err error) {
	defer func() { observeOperation("reserve", err) }()

	today := uc.now()

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 锁定图书行:与同一本书上的还书/履约串行化,
		// 保证排队顺序与履约顺序一致
		b, err := uc.bookRepo.LockByID(txCtx, req.BookID)
		if err != nil {
			return err
		}
		if b.Status == book.StatusAvailable {
			return book.ErrBookAvailable
		}
		if !b.Status.Reservable() {
			return book.ErrBookUnavailable
		}

		rd, err := uc.readerRepo.FindByID(txCtx, req.ReaderID)
		if err != nil {
			return err
		}
		if !rd.CanBorrow() {
			return reader.ErrReaderNotActive
		}

		exists, err := uc.rsvRepo.HasActiveFor(txCtx, req.ReaderID, req.BookID)
		if err != nil {
			return err
		}
		if exists {
			return reservation.ErrReservationAlreadyExists
		}

		// 总量上限:在借数 + 排队数
		openCount, err := uc.loanRepo.CountOpenByReader(txCtx, req.ReaderID)
		if err != nil {
			return err
		}
		activeCount, err := uc.rsvRepo.CountActiveByReader(txCtx, req.ReaderID)
		if err != nil {
			return err
		}
		if openCount+activeCount >= int64(uc.policy.ReservationCeiling) {
			return reservation.ErrReservationCeiling
		}

		rsv := reservation.NewReservation(req.ReaderID, req.BookID, today, uc.policy.ReservationWindowDays)
		if err := uc.rsvRepo.Create(txCtx, rsv); err != nil {
			return err
		}

		result = rsv
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.sink.Emit(ctx, operatorEvent(
		audit.EventReserved, req.OperatorID, audit.TargetReservation, result.ID,
		fmt.Sprintf("读者%d预约图书%d,有效期至%s",
			req.ReaderID, req.BookID, result.ExpiryDate.Format("2006-01-02")),
		today,
	))

	return result, nil
}
