package reservation

import (
	"context"
	"time"
)

// Repository 预约队列仓储接口(ReservationQueue)
// 口径约定与借阅台账一致:按ID查找返回ErrReservationNotFound,
// 探测类方法查不到返回(nil, nil)
type Repository interface {
	// Create 创建预约
	Create(ctx context.Context, r *Reservation) error

	// FindByID 根据ID查找预约
	FindByID(ctx context.Context, id uint) (*Reservation, error)

	// Update 更新预约(状态/保留期限/领取日期)
	Update(ctx context.Context, r *Reservation) error

	// OldestActiveFor 图书的队首预约(reservation_date最早的active),
	// FIFO履约的出队口;没有则返回(nil, nil)
	OldestActiveFor(ctx context.Context, bookID uint) (*Reservation, error)

	// UnclaimedHoldFor 图书上未领取且未过保留期的fulfilled预约,
	// 没有则返回(nil, nil);借阅口径据此判断"仅保留读者可借"
	UnclaimedHoldFor(ctx context.Context, bookID uint, today time.Time) (*Reservation, error)

	// HasActiveFor 读者对该图书是否已有排队中的预约
	HasActiveFor(ctx context.Context, readerID, bookID uint) (bool, error)

	// CountActiveByReader 读者当前排队中的预约数量(总量上限校验用)
	CountActiveByReader(ctx context.Context, readerID uint) (int64, error)

	// CountActiveForBookExcluding 该图书上除指定读者外的排队预约数
	// (续借冲突检查:他人排队时续借被阻止)
	CountActiveForBookExcluding(ctx context.Context, bookID, readerID uint) (int64, error)

	// FindExpiredCandidates 预约过期清扫候选:
	// status=active且expiry_date早于today
	FindExpiredCandidates(ctx context.Context, today time.Time) ([]*Reservation, error)

	// FindLapsedHolds 保留期过期清扫候选:
	// status=fulfilled、未领取且expiry_date早于today
	FindLapsedHolds(ctx context.Context, today time.Time) ([]*Reservation, error)

	// MarkExpired 条件转换from → expired,返回是否实际转换
	// (清扫幂等性:已转换的记录第二次不命中)
	MarkExpired(ctx context.Context, id uint, from Status) (bool, error)
}
