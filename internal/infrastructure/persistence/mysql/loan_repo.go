package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// loanRepository 借阅台账仓储实现(MySQL)
// 设计说明:
// 1. "在借"口径固定为status IN ('borrowed', 'overdue'),
//    所有统计与探测共用openStatuses,避免口径漂移
// 2. MarkOverdue用条件UPDATE落地清扫幂等性:
//    WHERE status='borrowed'保证已转换/已归还的记录不会二次命中
type loanRepository struct {
	db *gorm.DB
}

var openStatuses = []string{string(loan.StatusBorrowed), string(loan.StatusOverdue)}

// NewLoanRepository 创建借阅台账仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

// Create 创建借阅记录
func (r *loanRepository) Create(ctx context.Context, record *loan.LoanRecord) error {
	model := toBorrowModel(record)

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}

	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	record.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找借阅记录
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.LoanRecord, error) {
	var model BorrowModel
	err := r.getDB(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return toLoanEntity(&model), nil
}

// LockByID 悲观锁查询借阅记录(SELECT FOR UPDATE)
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.LoanRecord, error) {
	var model BorrowModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "锁定借阅记录失败")
	}
	return toLoanEntity(&model), nil
}

// Update 更新借阅记录
func (r *loanRepository) Update(ctx context.Context, record *loan.LoanRecord) error {
	model := toBorrowModel(record)
	if err := r.getDB(ctx).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新借阅记录失败")
	}
	record.UpdatedAt = model.UpdatedAt
	return nil
}

// CountOpenByReader 读者当前在借数量
func (r *loanRepository) CountOpenByReader(ctx context.Context, readerID uint) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&BorrowModel{}).
		Where("reader_id = ? AND status IN ?", readerID, openStatuses).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计在借数量失败")
	}
	return count, nil
}

// CountOpen 全馆当前在借记录总数
func (r *loanRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&BorrowModel{}).
		Where("status IN ?", openStatuses).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计在借总数失败")
	}
	return count, nil
}

// FindOpenByBook 图书当前的在借记录,没有则返回(nil, nil)
func (r *loanRepository) FindOpenByBook(ctx context.Context, bookID uint) (*loan.LoanRecord, error) {
	var model BorrowModel
	err := r.getDB(ctx).
		Where("book_id = ? AND status IN ?", bookID, openStatuses).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "查询在借记录失败")
	}
	return toLoanEntity(&model), nil
}

// FindHoldByReaderAndBook 读者在该书上的保留记录,没有则返回(nil, nil)
func (r *loanRepository) FindHoldByReaderAndBook(ctx context.Context, readerID, bookID uint) (*loan.LoanRecord, error) {
	var model BorrowModel
	err := r.getDB(ctx).
		Where("reader_id = ? AND book_id = ? AND status = ?",
			readerID, bookID, string(loan.StatusReserved)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "查询保留记录失败")
	}
	return toLoanEntity(&model), nil
}

// FindOverdueCandidates 逾期清扫候选
func (r *loanRepository) FindOverdueCandidates(ctx context.Context, today time.Time) ([]*loan.LoanRecord, error) {
	var models []BorrowModel
	err := r.getDB(ctx).
		Where("status = ? AND due_date < ?", string(loan.StatusBorrowed), loan.Day(today)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询逾期候选失败")
	}
	return toLoanEntities(models), nil
}

// FindLapsedHolds 保留期已过的保留记录
func (r *loanRepository) FindLapsedHolds(ctx context.Context, today time.Time) ([]*loan.LoanRecord, error) {
	var models []BorrowModel
	err := r.getDB(ctx).
		Where("status = ? AND due_date < ?", string(loan.StatusReserved), loan.Day(today)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询过期保留记录失败")
	}
	return toLoanEntities(models), nil
}

// MarkOverdue 条件转换borrowed → overdue
// 返回是否实际发生转换,RowsAffected为0意味着记录已被并发清扫或已归还
func (r *loanRepository) MarkOverdue(ctx context.Context, id uint) (bool, error) {
	result := r.getDB(ctx).Model(&BorrowModel{}).
		Where("id = ? AND status = ?", id, string(loan.StatusBorrowed)).
		Update("status", string(loan.StatusOverdue))

	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "标记逾期失败")
	}
	return result.RowsAffected > 0, nil
}

// toBorrowModel 领域实体 → GORM模型
func toBorrowModel(record *loan.LoanRecord) *BorrowModel {
	return &BorrowModel{
		ID:         record.ID,
		ReaderID:   record.ReaderID,
		BookID:     record.BookID,
		BorrowDate: record.BorrowDate,
		DueDate:    record.DueDate,
		ReturnDate: record.ReturnDate,
		RenewCount: record.RenewCount,
		FineAmount: record.FineAmount,
		Status:     string(record.Status),
		Notes:      record.Notes,
	}
}

// toLoanEntity GORM模型 → 领域实体
func toLoanEntity(model *BorrowModel) *loan.LoanRecord {
	return &loan.LoanRecord{
		ID:         model.ID,
		ReaderID:   model.ReaderID,
		BookID:     model.BookID,
		BorrowDate: model.BorrowDate,
		DueDate:    model.DueDate,
		ReturnDate: model.ReturnDate,
		RenewCount: model.RenewCount,
		FineAmount: model.FineAmount,
		Status:     loan.Status(model.Status),
		Notes:      model.Notes,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toLoanEntities(models []BorrowModel) []*loan.LoanRecord {
	records := make([]*loan.LoanRecord, len(models))
	for i := range models {
		records[i] = toLoanEntity(&models[i])
	}
	return records
}

func (r *loanRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
