package lending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reader"
)

func TestRenewLoan(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, *loan.LoanRecord) {
		env := newTestEnv(testPolicy(), day(2026, 3, 1))
		env.addBook(10, book.StatusAvailable, 5000)
		env.addReader(1, reader.StatusActive, 5)
		record, err := env.borrow.Execute(context.Background(), BorrowBookRequest{ReaderID: 1, BookID: 10})
		require.NoError(t, err)
		return env, record
	}

	t.Run("正常续借", func(t *testing.T) {
		env, record := setup(t)

		result, err := env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID, OperatorID: 100})
		require.NoError(t, err)
		assert.Equal(t, day(2026, 4, 30), result.DueDate)
		assert.Equal(t, 1, result.RenewCount)
		assert.Equal(t, 1, env.sink.countOf(audit.EventRenewed))
	})

	t.Run("续借次数达上限", func(t *testing.T) {
		env, record := setup(t)

		_, err := env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID})
		require.NoError(t, err)
		_, err = env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID})
		require.NoError(t, err)
		_, err = env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID})
		assert.ErrorIs(t, err, loan.ErrRenewalLimitExceeded)
	})

	t.Run("他人排队时不可续借", func(t *testing.T) {
		env, record := setup(t)
		env.addReader(2, reader.StatusActive, 5)
		_, err := env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 2, BookID: 10})
		require.NoError(t, err)

		_, err = env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID})
		assert.ErrorIs(t, err, loan.ErrReservationConflict)
	})

	t.Run("逾期记录不可续借", func(t *testing.T) {
		env, record := setup(t)
		ok, err := env.loanRepo.MarkOverdue(context.Background(), record.ID)
		require.NoError(t, err)
		require.True(t, ok)

		// 他人同时排队也优先报逾期,不报预约冲突
		env.addReader(2, reader.StatusActive, 5)
		_, err = env.reserve.Execute(context.Background(), ReserveBookRequest{ReaderID: 2, BookID: 10})
		require.NoError(t, err)

		_, err = env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID})
		assert.ErrorIs(t, err, loan.ErrLoanOverdue)
	})

	t.Run("已归还记录不可续借", func(t *testing.T) {
		env, record := setup(t)
		_, err := env.ret.Execute(context.Background(), ReturnBookRequest{LoanID: record.ID})
		require.NoError(t, err)

		_, err = env.renew.Execute(context.Background(), RenewLoanRequest{LoanID: record.ID})
		assert.ErrorIs(t, err, loan.ErrLoanAlreadyClosed)
	})
}
