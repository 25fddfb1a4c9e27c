package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/reservation"
)

// CancelReservationUseCase 取消预约用例
// 仅排队中(active)的预约可取消,且仅限本人;
// 已进入保留期的预约由保留期清扫回收,不走取消
type CancelReservationUseCase struct {
	txManager Transactor
	rsvRepo   reservation.Repository
	sink      audit.Sink
	now       func() time.Time
}

// NewCancelReservationUseCase 创建取消预约用例
func NewCancelReservationUseCase(
	txManager Transactor,
	rsvRepo reservation.Repository,
	sink audit.Sink,
) *CancelReservationUseCase {
	return &CancelReservationUseCase{
		txManager: txManager,
		rsvRepo:   rsvRepo,
		sink:      sink,
		now:       time.Now,
	}
}

// CancelReservationRequest 取消预约请求DTO
type CancelReservationRequest struct {
	ReservationID uint // 预约ID
	ReaderID      uint // 发起取消的读者ID(必须是预约本人)
	OperatorID    uint // 经办馆员ID
}

// Execute 执行取消预约
func (uc *CancelReservationUseCase) Execute(ctx context.Context, req CancelReservationRequest) (err error) {
	defer func() { observeOperation("cancel_reservation", err) }()

	today := uc.now()

	var cancelled *reservation.Reservation
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		rsv, err := uc.rsvRepo.FindByID(txCtx, req.ReservationID)
		if err != nil {
			return err
		}
		if err := rsv.Cancel(req.ReaderID); err != nil {
			return err
		}
		if err := uc.rsvRepo.Update(txCtx, rsv); err != nil {
			return err
		}
		cancelled = rsv
		return nil
	})
	if err != nil {
		return err
	}

	uc.sink.Emit(ctx, operatorEvent(
		audit.EventReservationCancelled, req.OperatorID, audit.TargetReservation, cancelled.ID,
		fmt.Sprintf("读者%d取消图书%d的预约", req.ReaderID, cancelled.BookID),
		today,
	))

	return nil
}
