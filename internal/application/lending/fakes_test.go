package lending

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reader"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/infrastructure/config"
)

// 内存假仓储:用例测试不依赖MySQL,只验证引擎语义
// (并发互斥由存储层的行锁保证,不在这里测)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func fixedDay(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		LoanPeriodDays:        30,
		RenewLimit:            2,
		RenewExtendDays:       30,
		FinePerDay:            100,
		FineCapDefault:        0,
		ReservationWindowDays: 30,
		HoldWindowDays:        3,
		AutoClaim:             false,
		ReservationCeiling:    10,
	}
}

// fakeTx 直接执行fn,不提供真实事务语义
type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingSink 记录发出的审计事件
type recordingSink struct {
	events []audit.Event
}

func (s *recordingSink) Emit(_ context.Context, e audit.Event) {
	s.events = append(s.events, e)
}

func (s *recordingSink) countOf(eventType audit.EventType) int {
	n := 0
	for _, e := range s.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// fakeBookRepo 图书假仓储
type fakeBookRepo struct {
	books map[uint]*book.Book
}

func newFakeBookRepo(books ...*book.Book) *fakeBookRepo {
	r := &fakeBookRepo{books: make(map[uint]*book.Book)}
	for _, b := range books {
		r.books[b.ID] = b
	}
	return r
}

func (r *fakeBookRepo) Create(_ context.Context, b *book.Book) error {
	r.books[b.ID] = b
	return nil
}

func (r *fakeBookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return b, nil
}

func (r *fakeBookRepo) FindByISBN(_ context.Context, isbn string) (*book.Book, error) {
	for _, b := range r.books {
		if b.ISBN == isbn {
			return b, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (r *fakeBookRepo) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBookRepo) UpdateStatus(_ context.Context, id uint, status book.Status) error {
	b, ok := r.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	b.Status = status
	return nil
}

// fakeReaderRepo 读者假仓储
type fakeReaderRepo struct {
	readers map[uint]*reader.Reader
}

func newFakeReaderRepo(readers ...*reader.Reader) *fakeReaderRepo {
	r := &fakeReaderRepo{readers: make(map[uint]*reader.Reader)}
	for _, rd := range readers {
		r.readers[rd.ID] = rd
	}
	return r
}

func (r *fakeReaderRepo) Create(_ context.Context, rd *reader.Reader) error {
	r.readers[rd.ID] = rd
	return nil
}

func (r *fakeReaderRepo) FindByID(_ context.Context, id uint) (*reader.Reader, error) {
	rd, ok := r.readers[id]
	if !ok {
		return nil, reader.ErrReaderNotFound
	}
	return rd, nil
}

func (r *fakeReaderRepo) FindByCardNumber(_ context.Context, cardNumber string) (*reader.Reader, error) {
	for _, rd := range r.readers {
		if rd.CardNumber == cardNumber {
			return rd, nil
		}
	}
	return nil, reader.ErrReaderNotFound
}

func (r *fakeReaderRepo) UpdateStatus(_ context.Context, id uint, status reader.Status) error {
	rd, ok := r.readers[id]
	if !ok {
		return reader.ErrReaderNotFound
	}
	rd.Status = status
	return nil
}

// fakeLoanRepo 借阅台账假仓储
type fakeLoanRepo struct {
	seq     uint
	records map[uint]*loan.LoanRecord
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{records: make(map[uint]*loan.LoanRecord)}
}

func (r *fakeLoanRepo) Create(_ context.Context, record *loan.LoanRecord) error {
	r.seq++
	record.ID = r.seq
	r.records[record.ID] = record
	return nil
}

func (r *fakeLoanRepo) FindByID(_ context.Context, id uint) (*loan.LoanRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	return record, nil
}

func (r *fakeLoanRepo) LockByID(ctx context.Context, id uint) (*loan.LoanRecord, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeLoanRepo) Update(_ context.Context, record *loan.LoanRecord) error {
	r.records[record.ID] = record
	return nil
}

func (r *fakeLoanRepo) CountOpenByReader(_ context.Context, readerID uint) (int64, error) {
	var count int64
	for _, record := range r.records {
		if record.ReaderID == readerID && record.Status.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (r *fakeLoanRepo) CountOpen(_ context.Context) (int64, error) {
	var count int64
	for _, record := range r.records {
		if record.Status.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (r *fakeLoanRepo) FindOpenByBook(_ context.Context, bookID uint) (*loan.LoanRecord, error) {
	for _, record := range r.records {
		if record.BookID == bookID && record.Status.IsOpen() {
			return record, nil
		}
	}
	return nil, nil
}

func (r *fakeLoanRepo) FindHoldByReaderAndBook(_ context.Context, readerID, bookID uint) (*loan.LoanRecord, error) {
	for _, record := range r.records {
		if record.ReaderID == readerID && record.BookID == bookID && record.Status == loan.StatusReserved {
			return record, nil
		}
	}
	return nil, nil
}

func (r *fakeLoanRepo) FindOverdueCandidates(_ context.Context, today time.Time) ([]*loan.LoanRecord, error) {
	var result []*loan.LoanRecord
	for _, record := range r.records {
		if record.Status == loan.StatusBorrowed && record.DueDate.Before(loan.Day(today)) {
			result = append(result, record)
		}
	}
	return result, nil
}

func (r *fakeLoanRepo) FindLapsedHolds(_ context.Context, today time.Time) ([]*loan.LoanRecord, error) {
	var result []*loan.LoanRecord
	for _, record := range r.records {
		if record.Status == loan.StatusReserved && record.DueDate.Before(loan.Day(today)) {
			result = append(result, record)
		}
	}
	return result, nil
}

func (r *fakeLoanRepo) MarkOverdue(_ context.Context, id uint) (bool, error) {
	record, ok := r.records[id]
	if !ok || record.Status != loan.StatusBorrowed {
		return false, nil
	}
	record.Status = loan.StatusOverdue
	return true, nil
}

// fakeRsvRepo 预约队列假仓储
type fakeRsvRepo struct {
	seq          uint
	reservations map[uint]*reservation.Reservation
}

func newFakeRsvRepo() *fakeRsvRepo {
	return &fakeRsvRepo{reservations: make(map[uint]*reservation.Reservation)}
}

func (r *fakeRsvRepo) Create(_ context.Context, rsv *reservation.Reservation) error {
	r.seq++
	rsv.ID = r.seq
	r.reservations[rsv.ID] = rsv
	return nil
}

func (r *fakeRsvRepo) FindByID(_ context.Context, id uint) (*reservation.Reservation, error) {
	rsv, ok := r.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return rsv, nil
}

func (r *fakeRsvRepo) Update(_ context.Context, rsv *reservation.Reservation) error {
	r.reservations[rsv.ID] = rsv
	return nil
}

func (r *fakeRsvRepo) OldestActiveFor(_ context.Context, bookID uint) (*reservation.Reservation, error) {
	var oldest *reservation.Reservation
	for _, rsv := range r.reservations {
		if rsv.BookID != bookID || rsv.Status != reservation.StatusActive {
			continue
		}
		if oldest == nil ||
			rsv.ReservationDate.Before(oldest.ReservationDate) ||
			(rsv.ReservationDate.Equal(oldest.ReservationDate) && rsv.ID < oldest.ID) {
			oldest = rsv
		}
	}
	return oldest, nil
}

func (r *fakeRsvRepo) UnclaimedHoldFor(_ context.Context, bookID uint, today time.Time) (*reservation.Reservation, error) {
	for _, rsv := range r.reservations {
		if rsv.BookID == bookID && rsv.IsUnclaimedHold(today) {
			return rsv, nil
		}
	}
	return nil, nil
}

func (r *fakeRsvRepo) HasActiveFor(_ context.Context, readerID, bookID uint) (bool, error) {
	for _, rsv := range r.reservations {
		if rsv.ReaderID == readerID && rsv.BookID == bookID && rsv.Status == reservation.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRsvRepo) CountActiveByReader(_ context.Context, readerID uint) (int64, error) {
	var count int64
	for _, rsv := range r.reservations {
		if rsv.ReaderID == readerID && rsv.Status == reservation.StatusActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeRsvRepo) CountActiveForBookExcluding(_ context.Context, bookID, readerID uint) (int64, error) {
	var count int64
	for _, rsv := range r.reservations {
		if rsv.BookID == bookID && rsv.ReaderID != readerID && rsv.Status == reservation.StatusActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeRsvRepo) FindExpiredCandidates(_ context.Context, today time.Time) ([]*reservation.Reservation, error) {
	var result []*reservation.Reservation
	for _, rsv := range r.reservations {
		if rsv.Status == reservation.StatusActive && rsv.ExpiryDate.Before(loan.Day(today)) {
			result = append(result, rsv)
		}
	}
	return result, nil
}

func (r *fakeRsvRepo) FindLapsedHolds(_ context.Context, today time.Time) ([]*reservation.Reservation, error) {
	var result []*reservation.Reservation
	for _, rsv := range r.reservations {
		if rsv.Status == reservation.StatusFulfilled && rsv.ClaimedDate == nil && rsv.ExpiryDate.Before(loan.Day(today)) {
			result = append(result, rsv)
		}
	}
	return result, nil
}

func (r *fakeRsvRepo) MarkExpired(_ context.Context, id uint, from reservation.Status) (bool, error) {
	rsv, ok := r.reservations[id]
	if !ok || rsv.Status != from {
		return false, nil
	}
	rsv.Status = reservation.StatusExpired
	return true, nil
}

// testEnv 组装一套完整的用例与假存储
type testEnv struct {
	bookRepo   *fakeBookRepo
	readerRepo *fakeReaderRepo
	loanRepo   *fakeLoanRepo
	rsvRepo    *fakeRsvRepo
	sink       *recordingSink
	policy     config.PolicyConfig

	borrow  *BorrowBookUseCase
	ret     *ReturnBookUseCase
	renew   *RenewLoanUseCase
	reserve *ReserveBookUseCase
	cancel  *CancelReservationUseCase
	loss    *ReportLossUseCase
	fine    *ApplyFineUseCase

	sweepOverdue      *SweepOverdueLoansUseCase
	sweepReservations *SweepExpiredReservationsUseCase
}

func newTestEnv(policy config.PolicyConfig, today time.Time) *testEnv {
	env := &testEnv{
		bookRepo:   newFakeBookRepo(),
		readerRepo: newFakeReaderRepo(),
		loanRepo:   newFakeLoanRepo(),
		rsvRepo:    newFakeRsvRepo(),
		sink:       &recordingSink{},
		policy:     policy,
	}
	tx := fakeTx{}
	calc := loan.NewFineCalculator(policy.FinePerDay, policy.FineCapDefault)

	env.borrow = NewBorrowBookUseCase(tx, env.bookRepo, env.readerRepo, env.loanRepo, env.rsvRepo, env.sink, policy)
	env.ret = NewReturnBookUseCase(tx, env.loanRepo, env.bookRepo, env.rsvRepo, calc, env.sink, policy)
	env.renew = NewRenewLoanUseCase(tx, env.loanRepo, env.rsvRepo, env.sink, policy)
	env.reserve = NewReserveBookUseCase(tx, env.bookRepo, env.readerRepo, env.loanRepo, env.rsvRepo, env.sink, policy)
	env.cancel = NewCancelReservationUseCase(tx, env.rsvRepo, env.sink)
	env.loss = NewReportLossUseCase(tx, env.loanRepo, env.bookRepo, env.sink)
	env.fine = NewApplyFineUseCase(tx, env.loanRepo, env.sink)
	env.sweepOverdue = NewSweepOverdueLoansUseCase(env.loanRepo, env.sink)
	env.sweepReservations = NewSweepExpiredReservationsUseCase(tx, env.rsvRepo, env.loanRepo, env.bookRepo, env.sink)

	env.setToday(today)
	return env
}

// setToday 固定所有用例的业务日期
func (env *testEnv) setToday(today time.Time) {
	now := fixedDay(today)
	env.borrow.now = now
	env.ret.now = now
	env.renew.now = now
	env.reserve.now = now
	env.cancel.now = now
	env.loss.now = now
	env.fine.now = now
}

// addBook 添加一本测试图书
func (env *testEnv) addBook(id uint, status book.Status, price int64) *book.Book {
	b := &book.Book{ID: id, ISBN: "isbn", Title: "测试图书", Price: price, Status: status}
	env.bookRepo.books[id] = b
	return b
}

// addReader 添加一名测试读者
func (env *testEnv) addReader(id uint, status reader.Status, maxBorrow int) *reader.Reader {
	rd := &reader.Reader{ID: id, CardNumber: "card", Name: "测试读者", Status: status, MaxBorrowCount: maxBorrow}
	env.readerRepo.readers[id] = rd
	return rd
}
