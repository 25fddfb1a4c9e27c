package loan

import (
	"time"
)

// Status 借阅记录状态
// 设计说明:
// 1. 原系统用数据库触发器隐式驱动状态变化,这里改为显式状态机:
//    状态枚举 + 转换表,每次变化都是代码里一个有名字的操作
// 2. "在借"(open)指borrowed或overdue,互斥不变量即:
//    每本书任意时刻至多一条在借记录
type Status string

const (
	StatusBorrowed Status = "borrowed" // 在借
	StatusReturned Status = "returned" // 已归还
	StatusOverdue  Status = "overdue"  // 逾期未还(清扫任务标记)
	StatusLost     Status = "lost"     // 丢失
	StatusDamaged  Status = "damaged"  // 损毁
	StatusReserved Status = "reserved" // 保留待取(预约履约auto_claim模式产生)
	StatusFined    Status = "fined"    // 已罚款结清
)

// IsOpen 是否为在借状态(占用图书,计入读者借阅数)
func (s Status) IsOpen() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// transitions 合法状态转换表
// borrowed → returned(归还) / overdue(清扫) / lost、damaged(挂失登记)
// overdue  → returned / lost / damaged / fined(人工罚款结案)
// lost、damaged → fined(赔偿结案)
// reserved → borrowed(读者到馆领取) / returned(保留期过,书回架)
// returned、fined 为终态
var transitions = map[Status][]Status{
	StatusBorrowed: {StatusReturned, StatusOverdue, StatusLost, StatusDamaged},
	StatusOverdue:  {StatusReturned, StatusLost, StatusDamaged, StatusFined},
	StatusLost:     {StatusFined},
	StatusDamaged:  {StatusFined},
	StatusReserved: {StatusBorrowed, StatusReturned},
	StatusReturned: {},
	StatusFined:    {},
}

// LoanRecord 借阅记录实体(聚合根,LendingLedger条目)
// 设计说明:
// 1. 创建于借出,归还/续借/清扫/挂失只做状态变更,永不删除(历史台账)
// 2. DueDate = BorrowDate + 借期;reserved记录的DueDate语义是保留期限
// 3. FineAmount单位为分,归还时由罚款计算器写入
type LoanRecord struct {
	ID         uint
	ReaderID   uint       // 读者ID
	BookID     uint       // 图书ID
	BorrowDate time.Time  // 借出日期
	DueDate    time.Time  // 应还日期
	ReturnDate *time.Time // 实际归还日期(未还为nil)
	RenewCount int        // 已续借次数
	FineAmount int64      // 罚款金额(分)
	Status     Status     // 当前状态
	Notes      string     // 备注
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLoanRecord 创建借阅记录(工厂方法)
// borrowDate按自然日记账(时间部分截断),periodDays为策略借期
func NewLoanRecord(readerID, bookID uint, borrowDate time.Time, periodDays int) *LoanRecord {
	day := Day(borrowDate)
	now := time.Now()
	return &LoanRecord{
		ReaderID:   readerID,
		BookID:     bookID,
		BorrowDate: day,
		DueDate:    day.AddDate(0, 0, periodDays),
		RenewCount: 0,
		FineAmount: 0,
		Status:     StatusBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewHoldRecord 创建保留记录(auto_claim模式的预约履约产物)
// 保留记录不计入在借数,DueDate为保留期限,逾期未取由清扫任务回收
func NewHoldRecord(readerID, bookID uint, today time.Time, holdDays int) *LoanRecord {
	r := NewLoanRecord(readerID, bookID, today, holdDays)
	r.Status = StatusReserved
	r.Notes = "预约保留待取"
	return r
}

// CanTransitionTo 检查是否可以转换到目标状态
func (l *LoanRecord) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[l.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换
// 先校验转换表,非法跳转返回错误(如returned → borrowed)
func (l *LoanRecord) TransitionTo(target Status) error {
	if !l.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	l.Status = target
	l.UpdatedAt = time.Now()
	return nil
}

// Return 归还(领域行为)
// 逾期归还的罚款由调用方先经罚款计算器算出后传入;
// 状态仍记returned,罚款额落在FineAmount字段
func (l *LoanRecord) Return(today time.Time, fine int64) error {
	if err := l.TransitionTo(StatusReturned); err != nil {
		return err
	}
	day := Day(today)
	l.ReturnDate = &day
	l.FineAmount = fine
	return nil
}

// Renew 续借(领域行为)
// 业务规则:仅borrowed可续借(逾期须先归还并结清),次数受策略上限约束
func (l *LoanRecord) Renew(extendDays, limit int) error {
	if l.Status == StatusOverdue {
		return ErrLoanOverdue
	}
	if l.Status != StatusBorrowed {
		return ErrLoanAlreadyClosed
	}
	if l.RenewCount >= limit {
		return ErrRenewalLimitExceeded
	}
	l.DueDate = l.DueDate.AddDate(0, 0, extendDays)
	l.RenewCount++
	l.UpdatedAt = time.Now()
	return nil
}

// Claim 领取保留图书(reserved → borrowed)
// 重置借出日期与应还日期,保留记录转为正常在借记录
func (l *LoanRecord) Claim(today time.Time, periodDays int) error {
	if err := l.TransitionTo(StatusBorrowed); err != nil {
		return err
	}
	day := Day(today)
	l.BorrowDate = day
	l.DueDate = day.AddDate(0, 0, periodDays)
	return nil
}

// IsOverdueAsOf 截至today是否已过应还日期
// 按自然日比较:应还当天归还不算逾期
func (l *LoanRecord) IsOverdueAsOf(today time.Time) bool {
	return Day(today).After(Day(l.DueDate))
}

// Day 截断到自然日
// 台账的借出/应还/归还均按日记账,与原系统DATE列对齐
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
