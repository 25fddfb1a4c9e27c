package mysql

import (
	"context"

	"gorm.io/gorm"
)

// TxManager 事务管理器
// 设计说明:
// 1. 封装GORM的Transaction方法,fn返回error自动ROLLBACK,返回nil自动COMMIT
// 2. 通过context传递事务DB(避免全局变量),Repository的getDB从context提取
// 3. 借阅引擎的每个生命周期操作都包在一个Transaction里:
//    锁图书行 → 校验 → 写台账 → 更新图书状态,要么全部生效要么全部回滚
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    bk, err := bookRepo.LockByID(ctx, bookID) // 行锁
//	    if err != nil {
//	        return err
//	    }
//	    if err := loanRepo.Create(ctx, record); err != nil {
//	        return err // 自动回滚
//	    }
//	    return bookRepo.UpdateStatus(ctx, bookID, book.StatusBorrowed)
//	})
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)
		return fn(txCtx)
	})
}
