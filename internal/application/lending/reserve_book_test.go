package lending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/reader"
	"github.com/xiebiao/library/internal/domain/reservation"
)

func TestReserveBook(t *testing.T) {
	today := day(2026, 3, 1)

	t.Run("正常预约", func(t *testing.T) {
		env := newTestEnv(testPolicy(), today)
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(1, reader.StatusActive, 5)

		rsv, err := env.reserve.Execute(context.Background(), ReserveBookRequest{
			ReaderID: 1, BookID: 10, OperatorID: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusActive, rsv.Status)
		assert.Equal(t, day(2026, 3, 31), rsv.ExpiryDate)
		assert.Equal(t, 1, env.sink.countOf(audit.EventReserved))
	})

	t.Run("在架图书不可预约", func(t *testing.T) {
		env := newTestEnv(testPolicy(), today)
		env.addBook(10, book.StatusAvailable, 5000)
		env.addReader(1, reader.StatusActive, 5)

		_, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		assert.ErrorIs(t, err, book.ErrBookAvailable)
	})

	t.Run("丢失图书不可预约", func(t *testing.T) {
		env := newTestEnv(testPolicy(), today)
		env.addBook(10, book.StatusLost, 5000)
		env.addReader(1, reader.StatusActive, 5)

		_, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		assert.ErrorIs(t, err, book.ErrBookUnavailable)
	})

	t.Run("暂停读者不可预约", func(t *testing.T) {
		env := newTestEnv(testPolicy(), today)
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(1, reader.StatusSuspended, 5)

		_, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		assert.ErrorIs(t, err, reader.ErrReaderNotActive)
	})

	t.Run("重复预约被拒", func(t *testing.T) {
		env := newTestEnv(testPolicy(), today)
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(1, reader.StatusActive, 5)

		_, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		require.NoError(t, err)

		_, err = env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		assert.ErrorIs(t, err, reservation.ErrReservationAlreadyExists)
	})

	t.Run("在借加排队总量达上限", func(t *testing.T) {
		policy := testPolicy()
		policy.ReservationCeiling = 2
		env := newTestEnv(policy, today)
		env.addReader(1, reader.StatusActive, 5)
		env.addBook(10, book.StatusAvailable, 5000)
		env.addBook(11, book.StatusBorrowed, 5000)
		env.addBook(12, book.StatusBorrowed, 5000)

		// 1本在借 + 1条排队 = 上限2
		_, err := env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 1, BookID: 10})
		require.NoError(t, err)
		_, err = env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 11})
		require.NoError(t, err)

		_, err = env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 12})
		assert.ErrorIs(t, err, reservation.ErrReservationCeiling)
	})
}

func TestCancelReservation(t *testing.T) {
	today := day(2026, 3, 1)

	setup := func(t *testing.T) (*testEnv, *reservation.Reservation) {
		env := newTestEnv(testPolicy(), today)
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(1, reader.StatusActive, 5)
		rsv, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		require.NoError(t, err)
		return env, rsv
	}

	t.Run("本人取消排队中的预约", func(t *testing.T) {
		env, rsv := setup(t)

		err := env.cancel.Execute(context.Background(), CancelReservationRequest{
			ReservationID: rsv.ID, ReaderID: 1, OperatorID: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled, rsv.Status)
		assert.Equal(t, 1, env.sink.countOf(audit.EventReservationCancelled))
	})

	t.Run("非本人不可取消", func(t *testing.T) {
		env, rsv := setup(t)

		err := env.cancel.Execute(context.Background(), CancelReservationRequest{
			ReservationID: rsv.ID, ReaderID: 99,
		})
		assert.ErrorIs(t, err, reservation.ErrReservationNotOwn)
		assert.Equal(t, reservation.StatusActive, rsv.Status)
	})

	t.Run("保留期内不可取消", func(t *testing.T) {
		env, rsv := setup(t)
		require.NoError(t, rsv.Fulfill(today, 3))

		err := env.cancel.Execute(context.Background(), CancelReservationRequest{
			ReservationID: rsv.ID, ReaderID: 1,
		})
		assert.ErrorIs(t, err, reservation.ErrReservationClosed)
	})

	t.Run("预约不存在", func(t *testing.T) {
		env, _ := setup(t)

		err := env.cancel.Execute(context.Background(), CancelReservationRequest{
			ReservationID: 999, ReaderID: 1,
		})
		assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
	})
}
