package lending

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reader"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/metrics"
)

func TestSweepOverdueLoans(t *testing.T) {
	metrics.InitMetrics()

	env := newTestEnv(testPolicy(), day(2026, 3, 1))
	env.addReader(1, reader.StatusActive, 5)
	env.addBook(10, book.StatusAvailable, 5000)
	env.addBook(11, book.StatusAvailable, 5000)

	overdueLoan, err := env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 1, BookID: 10})
	require.NoError(t, err)

	// 第二条记录晚些借出,清扫日尚未到期
	env.setToday(day(2026, 3, 20))
	currentLoan, err := env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 1, BookID: 11})
	require.NoError(t, err)

	// 4月1日清扫:只有3月31日到期的第一条转逾期
	sweepDay := day(2026, 4, 1)
	transitioned, err := env.sweepOverdue.Execute(context.Background(), sweepDay)
	require.NoError(t, err)
	assert.Equal(t, 1, transitioned)
	assert.Equal(t, loan.StatusOverdue, overdueLoan.Status)
	assert.Equal(t, loan.StatusBorrowed, currentLoan.Status)
	assert.Equal(t, 1, env.sink.countOf(audit.EventLoanOverdue))
	// 清扫后回填在借总数:一条overdue + 一条borrowed
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.OpenLoansGauge))

	// 幂等:同日重跑不再转换、不再发事件
	transitioned, err = env.sweepOverdue.Execute(context.Background(), sweepDay)
	require.NoError(t, err)
	assert.Equal(t, 0, transitioned)
	assert.Equal(t, 1, env.sink.countOf(audit.EventLoanOverdue))
}

// 应还当天不算逾期,次日才转
func TestSweepOverdueLoans_DueDayGrace(t *testing.T) {
	env := newTestEnv(testPolicy(), day(2026, 3, 1))
	env.addReader(1, reader.StatusActive, 5)
	env.addBook(10, book.StatusAvailable, 5000)

	_, err := env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 1, BookID: 10})
	require.NoError(t, err)

	transitioned, err := env.sweepOverdue.Execute(context.Background(), day(2026, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, 0, transitioned)

	transitioned, err = env.sweepOverdue.Execute(context.Background(), day(2026, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, transitioned)
}

func TestSweepExpiredReservations(t *testing.T) {
	t.Run("排队超期作废", func(t *testing.T) {
		env := newTestEnv(testPolicy(), day(2026, 3, 1))
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(1, reader.StatusActive, 5)

		rsv, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 1, BookID: 10})
		require.NoError(t, err)

		// 有效期3月31日,4月1日清扫作废
		transitioned, err := env.sweepReservations.Execute(context.Background(), day(2026, 4, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, transitioned)
		assert.Equal(t, reservation.StatusExpired, rsv.Status)
		assert.Equal(t, 1, env.sink.countOf(audit.EventReservationExpired))

		// 幂等
		transitioned, err = env.sweepReservations.Execute(context.Background(), day(2026, 4, 1))
		require.NoError(t, err)
		assert.Equal(t, 0, transitioned)
		assert.Equal(t, 1, env.sink.countOf(audit.EventReservationExpired))
	})

	t.Run("保留超期作废", func(t *testing.T) {
		env := newTestEnv(testPolicy(), day(2026, 3, 1))
		env.addBook(10, book.StatusAvailable, 5000)
		env.addReader(1, reader.StatusActive, 5)

		rsv := reservation.NewReservation(1, 10, day(2026, 3, 1), 30)
		require.NoError(t, rsv.Fulfill(day(2026, 3, 10), 3))
		require.NoError(t, env.rsvRepo.Create(context.Background(), rsv))

		// 保留期至3月13日,14日清扫作废,图书恢复公开可借
		transitioned, err := env.sweepReservations.Execute(context.Background(), day(2026, 3, 14))
		require.NoError(t, err)
		assert.Equal(t, 1, transitioned)
		assert.Equal(t, reservation.StatusExpired, rsv.Status)
		assert.Equal(t, 1, env.sink.countOf(audit.EventHoldLapsed))

		// 作废后其他读者可借
		env.setToday(day(2026, 3, 14))
		env.addReader(2, reader.StatusActive, 5)
		_, err = env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 2, BookID: 10})
		assert.NoError(t, err)
	})

	t.Run("保留借阅记录超期回收", func(t *testing.T) {
		policy := testPolicy()
		policy.AutoClaim = true
		env := newTestEnv(policy, day(2026, 3, 1))
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(2, reader.StatusActive, 5)

		holdLoan := loan.NewHoldRecord(2, 10, day(2026, 3, 10), 3)
		require.NoError(t, env.loanRepo.Create(context.Background(), holdLoan))

		transitioned, err := env.sweepReservations.Execute(context.Background(), day(2026, 3, 14))
		require.NoError(t, err)
		assert.Equal(t, 1, transitioned)
		assert.Equal(t, loan.StatusReturned, holdLoan.Status)
		assert.Equal(t, book.StatusAvailable, env.bookRepo.books[10].Status)
		assert.Equal(t, 1, env.sink.countOf(audit.EventHoldLapsed))

		// 幂等
		transitioned, err = env.sweepReservations.Execute(context.Background(), day(2026, 3, 14))
		require.NoError(t, err)
		assert.Equal(t, 0, transitioned)
	})

	t.Run("已领取的保留借阅不受清扫影响", func(t *testing.T) {
		policy := testPolicy()
		policy.AutoClaim = true
		env := newTestEnv(policy, day(2026, 3, 12))
		env.addBook(10, book.StatusBorrowed, 5000)
		env.addReader(2, reader.StatusActive, 5)

		holdLoan := loan.NewHoldRecord(2, 10, day(2026, 3, 10), 3)
		require.NoError(t, env.loanRepo.Create(context.Background(), holdLoan))

		// 读者在保留期内领取,记录转为正常在借
		record, err := env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 2, BookID: 10})
		require.NoError(t, err)
		require.Equal(t, loan.StatusBorrowed, record.Status)

		transitioned, err := env.sweepReservations.Execute(context.Background(), day(2026, 3, 14))
		require.NoError(t, err)
		assert.Equal(t, 0, transitioned)
		assert.Equal(t, loan.StatusBorrowed, record.Status)
		assert.Equal(t, book.StatusBorrowed, env.bookRepo.books[10].Status)
	})
}
