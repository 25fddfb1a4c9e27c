package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/reader"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// readerRepository 读者仓储实现(MySQL)
type readerRepository struct {
	db *gorm.DB
}

// NewReaderRepository 创建读者仓储
func NewReaderRepository(db *gorm.DB) reader.Repository {
	return &readerRepository{db: db}
}

// Create 读者建档
func (r *readerRepository) Create(ctx context.Context, rd *reader.Reader) error {
	model := &ReaderModel{
		CardNumber:     rd.CardNumber,
		Name:           rd.Name,
		Gender:         rd.Gender,
		Phone:          rd.Phone,
		Email:          rd.Email,
		Address:        rd.Address,
		Status:         string(rd.Status),
		MaxBorrowCount: rd.MaxBorrowCount,
		RegisterDate:   rd.RegisterDate,
	}

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return reader.ErrCardNumberDuplicate
		}
		return apperrors.Wrap(err, "创建读者失败")
	}

	rd.ID = model.ID
	rd.CreatedAt = model.CreatedAt
	rd.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找读者
func (r *readerRepository) FindByID(ctx context.Context, id uint) (*reader.Reader, error) {
	var model ReaderModel
	err := r.getDB(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reader.ErrReaderNotFound
		}
		return nil, apperrors.Wrap(err, "查询读者失败")
	}
	return toReaderEntity(&model), nil
}

// FindByCardNumber 根据借书证号查找读者
func (r *readerRepository) FindByCardNumber(ctx context.Context, cardNumber string) (*reader.Reader, error) {
	var model ReaderModel
	err := r.getDB(ctx).Where("card_number = ?", cardNumber).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reader.ErrReaderNotFound
		}
		return nil, apperrors.Wrap(err, "查询读者失败")
	}
	return toReaderEntity(&model), nil
}

// UpdateStatus 更新读者状态
func (r *readerRepository) UpdateStatus(ctx context.Context, id uint, status reader.Status) error {
	result := r.getDB(ctx).Model(&ReaderModel{}).
		Where("id = ?", id).
		Update("status", string(status))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新读者状态失败")
	}
	if result.RowsAffected == 0 {
		return reader.ErrReaderNotFound
	}
	return nil
}

// toReaderEntity GORM模型 → 领域实体
func toReaderEntity(model *ReaderModel) *reader.Reader {
	return &reader.Reader{
		ID:             model.ID,
		CardNumber:     model.CardNumber,
		Name:           model.Name,
		Gender:         model.Gender,
		Phone:          model.Phone,
		Email:          model.Email,
		Address:        model.Address,
		Status:         reader.Status(model.Status),
		MaxBorrowCount: model.MaxBorrowCount,
		RegisterDate:   model.RegisterDate,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func (r *readerRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
