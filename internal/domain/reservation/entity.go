package reservation

import (
	"time"
)

// Status 预约状态
// 状态流转:
//
//	active → fulfilled(还书时队首履约,进入保留期)
//	active → cancelled(读者主动取消)
//	active → expired(预约有效期过,清扫任务标记)
//	fulfilled(未领取) → expired(保留期过,清扫任务标记,书恢复公开可借)
type Status string

const (
	StatusActive    Status = "active"    // 排队中
	StatusFulfilled Status = "fulfilled" // 已履约(保留期内等待领取)
	StatusCancelled Status = "cancelled" // 已取消
	StatusExpired   Status = "expired"   // 已过期
)

// Reservation 预约实体(聚合根)
// 设计说明:
// 1. 同一图书按ReservationDate先来后到(FIFO)履约
// 2. ExpiryDate双重语义:active时是预约有效期;fulfilled时被重置为
//    保留期限(hold window),期内只有该读者可借此书
// 3. ClaimedDate区分"保留中"与"已领取":fulfilled且ClaimedDate为空
//    才构成对其他读者的阻挡,领取后写入当日即自然失去阻挡效力
type Reservation struct {
	ID              uint
	ReaderID        uint       // 读者ID
	BookID          uint       // 图书ID
	ReservationDate time.Time  // 预约日期(FIFO排序键)
	ExpiryDate      time.Time  // 有效期/保留期限
	ClaimedDate     *time.Time // 领取日期(保留被领取时写入)
	Status          Status     // 当前状态
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewReservation 创建预约(工厂方法)
// windowDays为策略预约有效期
func NewReservation(readerID, bookID uint, today time.Time, windowDays int) *Reservation {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	now := time.Now()
	return &Reservation{
		ReaderID:        readerID,
		BookID:          bookID,
		ReservationDate: day,
		ExpiryDate:      day.AddDate(0, 0, windowDays),
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Fulfill 履约:队首预约进入保留期
// 保留期限覆盖原有效期,自此只有该读者可借此书
func (r *Reservation) Fulfill(today time.Time, holdDays int) error {
	if r.Status != StatusActive {
		return ErrReservationClosed
	}
	day := dayOf(today)
	r.Status = StatusFulfilled
	r.ExpiryDate = day.AddDate(0, 0, holdDays)
	r.UpdatedAt = time.Now()
	return nil
}

// Claim 领取:保留中的预约被读者实际借走
func (r *Reservation) Claim(today time.Time) error {
	if r.Status != StatusFulfilled || r.ClaimedDate != nil {
		return ErrReservationClosed
	}
	day := dayOf(today)
	r.ClaimedDate = &day
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消:仅排队中的预约可取消,且仅限本人
func (r *Reservation) Cancel(readerID uint) error {
	if r.ReaderID != readerID {
		return ErrReservationNotOwn
	}
	if r.Status != StatusActive {
		return ErrReservationClosed
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// IsUnclaimedHold 是否为未领取的保留(对其他读者构成阻挡)
func (r *Reservation) IsUnclaimedHold(today time.Time) bool {
	return r.Status == StatusFulfilled &&
		r.ClaimedDate == nil &&
		!dayOf(today).After(dayOf(r.ExpiryDate))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
