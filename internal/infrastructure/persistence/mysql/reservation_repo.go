package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// reservationRepository 预约队列仓储实现(MySQL)
// 设计说明:FIFO语义由OldestActiveFor的排序保证,
// ORDER BY reservation_date ASC, id ASC让同日预约按入库顺序出队
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预约仓储
func NewReservationRepository(db *gorm.DB) reservation.Repository {
	return &reservationRepository{db: db}
}

// Create 创建预约
func (r *reservationRepository) Create(ctx context.Context, rsv *reservation.Reservation) error {
	model := toReservationModel(rsv)

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建预约失败")
	}

	rsv.ID = model.ID
	rsv.CreatedAt = model.CreatedAt
	rsv.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找预约
func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, apperrors.Wrap(err, "查询预约失败")
	}
	return toReservationEntity(&model), nil
}

// Update 更新预约
func (r *reservationRepository) Update(ctx context.Context, rsv *reservation.Reservation) error {
	model := toReservationModel(rsv)
	if err := r.getDB(ctx).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新预约失败")
	}
	rsv.UpdatedAt = model.UpdatedAt
	return nil
}

// OldestActiveFor 图书的队首预约,没有则返回(nil, nil)
func (r *reservationRepository) OldestActiveFor(ctx context.Context, bookID uint) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).
		Where("book_id = ? AND status = ?", bookID, string(reservation.StatusActive)).
		Order("reservation_date ASC, id ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "查询队首预约失败")
	}
	return toReservationEntity(&model), nil
}

// UnclaimedHoldFor 图书上未领取且未过保留期的fulfilled预约
func (r *reservationRepository) UnclaimedHoldFor(ctx context.Context, bookID uint, today time.Time) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).
		Where("book_id = ? AND status = ? AND claimed_date IS NULL AND expiry_date >= ?",
			bookID, string(reservation.StatusFulfilled), loan.Day(today)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "查询保留预约失败")
	}
	return toReservationEntity(&model), nil
}

// HasActiveFor 读者对该图书是否已有排队中的预约
func (r *reservationRepository) HasActiveFor(ctx context.Context, readerID, bookID uint) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&ReservationModel{}).
		Where("reader_id = ? AND book_id = ? AND status = ?",
			readerID, bookID, string(reservation.StatusActive)).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询预约失败")
	}
	return count > 0, nil
}

// CountActiveByReader 读者当前排队中的预约数量
func (r *reservationRepository) CountActiveByReader(ctx context.Context, readerID uint) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&ReservationModel{}).
		Where("reader_id = ? AND status = ?", readerID, string(reservation.StatusActive)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计预约数量失败")
	}
	return count, nil
}

// CountActiveForBookExcluding 该图书上除指定读者外的排队预约数
func (r *reservationRepository) CountActiveForBookExcluding(ctx context.Context, bookID, readerID uint) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&ReservationModel{}).
		Where("book_id = ? AND reader_id <> ? AND status = ?",
			bookID, readerID, string(reservation.StatusActive)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计他人预约失败")
	}
	return count, nil
}

// FindExpiredCandidates 预约过期清扫候选
func (r *reservationRepository) FindExpiredCandidates(ctx context.Context, today time.Time) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	err := r.getDB(ctx).
		Where("status = ? AND expiry_date < ?", string(reservation.StatusActive), loan.Day(today)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询过期预约候选失败")
	}
	return toReservationEntities(models), nil
}

// FindLapsedHolds 保留期过期清扫候选
func (r *reservationRepository) FindLapsedHolds(ctx context.Context, today time.Time) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	err := r.getDB(ctx).
		Where("status = ? AND claimed_date IS NULL AND expiry_date < ?",
			string(reservation.StatusFulfilled), loan.Day(today)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询过期保留候选失败")
	}
	return toReservationEntities(models), nil
}

// MarkExpired 条件转换from → expired,返回是否实际转换
func (r *reservationRepository) MarkExpired(ctx context.Context, id uint, from reservation.Status) (bool, error) {
	result := r.getDB(ctx).Model(&ReservationModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(reservation.StatusExpired))

	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "标记预约过期失败")
	}
	return result.RowsAffected > 0, nil
}

// toReservationModel 领域实体 → GORM模型
func toReservationModel(rsv *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:              rsv.ID,
		ReaderID:        rsv.ReaderID,
		BookID:          rsv.BookID,
		ReservationDate: rsv.ReservationDate,
		ExpiryDate:      rsv.ExpiryDate,
		ClaimedDate:     rsv.ClaimedDate,
		Status:          string(rsv.Status),
	}
}

// toReservationEntity GORM模型 → 领域实体
func toReservationEntity(model *ReservationModel) *reservation.Reservation {
	return &reservation.Reservation{
		ID:              model.ID,
		ReaderID:        model.ReaderID,
		BookID:          model.BookID,
		ReservationDate: model.ReservationDate,
		ExpiryDate:      model.ExpiryDate,
		ClaimedDate:     model.ClaimedDate,
		Status:          reservation.Status(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toReservationEntities(models []ReservationModel) []*reservation.Reservation {
	reservations := make([]*reservation.Reservation, len(models))
	for i := range models {
		reservations[i] = toReservationEntity(&models[i])
	}
	return reservations
}

func (r *reservationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
