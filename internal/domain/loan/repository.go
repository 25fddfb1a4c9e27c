package loan

import (
	"context"
	"time"
)

// Repository 借阅台账仓储接口(LendingLedger)
// 设计说明:
// 1. 台账只追加和更新,永不删除
// 2. "查不到"分两种口径:按ID查找返回ErrLoanNotFound;
//    条件探测类方法(FindOpenByBook等)约定查不到返回(nil, nil),
//    由调用方区分"没有"和"出错"
// 3. MarkOverdue是条件更新(WHERE status='borrowed'),这是清扫幂等性的
//    落地手段:已转换过的记录第二次不会再命中
type Repository interface {
	// Create 创建借阅记录
	Create(ctx context.Context, record *LoanRecord) error

	// FindByID 根据ID查找借阅记录
	FindByID(ctx context.Context, id uint) (*LoanRecord, error)

	// LockByID 悲观锁查询借阅记录(SELECT FOR UPDATE)
	// 归还与续借竞争同一条记录时按行锁串行化
	LockByID(ctx context.Context, id uint) (*LoanRecord, error)

	// Update 更新借阅记录(状态/日期/罚款)
	Update(ctx context.Context, record *LoanRecord) error

	// CountOpenByReader 读者当前在借数量(status ∈ borrowed, overdue)
	// 借阅上限校验以此为准,不信任任何冗余计数
	CountOpenByReader(ctx context.Context, readerID uint) (int64, error)

	// CountOpen 全馆当前在借记录总数(清扫任务回填指标用)
	CountOpen(ctx context.Context) (int64, error)

	// FindOpenByBook 图书当前的在借记录,没有则返回(nil, nil)
	FindOpenByBook(ctx context.Context, bookID uint) (*LoanRecord, error)

	// FindHoldByReaderAndBook 读者在该书上的保留记录(status=reserved),
	// 没有则返回(nil, nil)
	FindHoldByReaderAndBook(ctx context.Context, readerID, bookID uint) (*LoanRecord, error)

	// FindOverdueCandidates 逾期清扫候选:status=borrowed且due_date早于today
	FindOverdueCandidates(ctx context.Context, today time.Time) ([]*LoanRecord, error)

	// FindLapsedHolds 保留期已过的保留记录:status=reserved且due_date早于today
	FindLapsedHolds(ctx context.Context, today time.Time) ([]*LoanRecord, error)

	// MarkOverdue 条件转换borrowed → overdue
	// 返回是否实际发生了转换(false表示已被并发清扫或已归还)
	MarkOverdue(ctx context.Context, id uint) (bool, error)
}
