package book

import (
	"context"
)

// Repository 图书仓储接口(InventoryStore)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(依赖倒置)
// 2. 生命周期操作必须通过LockByID在事务内锁定图书行,
//    两个并发借阅同一本书时恰有一方胜出,败方看到一致的"不可借"
type Repository interface {
	// Create 图书入库
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据ISBN查找图书
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// LockByID 悲观锁查询图书(SELECT FOR UPDATE)
	// 借阅/还书对图书状态的检查与更新必须在此锁保护下进行,
	// 否则并发借阅会破坏"每本书至多一条在借记录"的互斥不变量
	LockByID(ctx context.Context, id uint) (*Book, error)

	// UpdateStatus 更新图书状态
	UpdateStatus(ctx context.Context, id uint, status Status) error
}
