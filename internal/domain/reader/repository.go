package reader

import (
	"context"
)

// Repository 读者仓储接口(ReaderAccountStore)
type Repository interface {
	// Create 读者建档
	Create(ctx context.Context, reader *Reader) error

	// FindByID 根据ID查找读者
	FindByID(ctx context.Context, id uint) (*Reader, error)

	// FindByCardNumber 根据借书证号查找读者
	FindByCardNumber(ctx context.Context, cardNumber string) (*Reader, error)

	// UpdateStatus 更新读者状态(active/suspended/expired)
	UpdateStatus(ctx context.Context, id uint, status Status) error
}
