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

// BorrowBookUseCase 借书用例
// 这是引擎最核心的用例:互斥不变量在这里守住
// 并发场景:两个馆员同时给不同读者借同一本书
// 错误实现:先查图书状态再创建记录,两个请求都看到available,
// 结果一本书出现两条在借记录
// 正确实现:SELECT FOR UPDATE锁定图书行,校验与写入串行化,
// 败方在胜方提交后才拿到锁,看到的已是borrowed
type BorrowBookUseCase struct {
	txManager  Transactor
	bookRepo   book.Repository
	readerRepo reader.Repository
	loanRepo   loan.Repository
	rsvRepo    reservation.Repository
	sink       audit.Sink
	policy     config.PolicyConfig
	now        func() time.Time
}

// NewBorrowBookUseCase 创建借书用例
func NewBorrowBookUseCase(
	txManager Transactor,
	bookRepo book.Repository,
	readerRepo reader.Repository,
	loanRepo loan.Repository,
	rsvRepo reservation.Repository,
	sink audit.Sink,
	policy config.PolicyConfig,
) *BorrowBookUseCase {
	return &BorrowBookUseCase{
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

// BorrowBookRequest 借书请求DTO
type BorrowBookRequest struct {
	ReaderID   uint // 读者ID
	BookID     uint // 图书ID
	OperatorID uint // 经办馆员ID(审计用)
}

// Execute 执行借书
func (uc *BorrowBookUseCase) Execute(ctx context.Context, req BorrowBookRequest) (result *loan.LoanRecord, err error) {
	defer func() { observeOperation("borrow", err) }()

	today := uc.now()

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定图书行(悲观锁,串行化并发借阅)
		b, err := uc.bookRepo.LockByID(txCtx, req.BookID)
		if err != nil {
			return err
		}

		// 2. 读者资格校验
		rd, err := uc.readerRepo.FindByID(txCtx, req.ReaderID)
		if err != nil {
			return err
		}
		if !rd.CanBorrow() {
			return reader.ErrReaderNotActive
		}

		// 3. 借阅上限校验(在借数量从台账COUNT,不信任冗余计数)
		openCount, err := uc.loanRepo.CountOpenByReader(txCtx, req.ReaderID)
		if err != nil {
			return err
		}
		if openCount >= int64(rd.MaxBorrowCount) {
			return reader.ErrBorrowLimitReached
		}

		// 4. 保留(hold)处理
		// 保留期内的图书只有保留读者可借,其他读者一律不可借
		hold, err := uc.rsvRepo.UnclaimedHoldFor(txCtx, req.BookID, today)
		if err != nil {
			return err
		}

		if hold != nil && hold.ReaderID == req.ReaderID {
			// 保留读者来领书:图书须仍在架
			// (保留期内图书可能被挂失/损毁登记下架)
			if !b.Status.Lendable() {
				return book.ErrBookUnavailable
			}
			// 预约标记已领取,继续正常借出
			if err := hold.Claim(today); err != nil {
				return err
			}
			if err := uc.rsvRepo.Update(txCtx, hold); err != nil {
				return err
			}
		} else {
			// auto_claim模式:读者名下可能有一条保留借阅记录(reserved),
			// 领取即reserved → borrowed,重置借期,不新建记录
			holdLoan, err := uc.loanRepo.FindHoldByReaderAndBook(txCtx, req.ReaderID, req.BookID)
			if err != nil {
				return err
			}
			if holdLoan != nil {
				if err := holdLoan.Claim(today, uc.policy.LoanPeriodDays); err != nil {
					return err
				}
				if err := uc.loanRepo.Update(txCtx, holdLoan); err != nil {
					return err
				}
				result = holdLoan
				return nil
			}

			// 普通路径:图书必须在架,且没有他人的保留
			if !b.Status.Lendable() {
				return book.ErrBookUnavailable
			}
			if hold != nil {
				return book.ErrBookUnavailable
			}
		}

		// 5. 写台账 + 更新图书状态
		record := loan.NewLoanRecord(req.ReaderID, req.BookID, today, uc.policy.LoanPeriodDays)
		if err := uc.loanRepo.Create(txCtx, record); err != nil {
			return err
		}
		if err := uc.bookRepo.UpdateStatus(txCtx, req.BookID, book.StatusBorrowed); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务已提交,发出审计事件
	uc.sink.Emit(ctx, operatorEvent(
		audit.EventBorrowed, req.OperatorID, audit.TargetLoan, result.ID,
		fmt.Sprintf("读者%d借出图书%d,应还日期%s",
			req.ReaderID, req.BookID, result.DueDate.Format("2006-01-02")),
		today,
	))

	return result, nil
}
