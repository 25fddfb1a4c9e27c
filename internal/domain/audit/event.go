package audit

import (
	"context"
	"time"
)

// EventType 借阅生命周期事件类型
type EventType string

const (
	EventBorrowed             EventType = "borrowed"              // 借出
	EventReturned             EventType = "returned"              // 归还
	EventRenewed              EventType = "renewed"               // 续借
	EventReserved             EventType = "reserved"              // 预约
	EventReservationCancelled EventType = "reservation_cancelled" // 预约取消
	EventReservationFulfilled EventType = "reservation_fulfilled" // 预约履约(进入保留期)
	EventReservationExpired   EventType = "reservation_expired"   // 预约过期
	EventHoldLapsed           EventType = "hold_lapsed"           // 保留期过,书回架
	EventLoanOverdue          EventType = "loan_overdue"          // 逾期标记
	EventLoanLost             EventType = "loan_lost"             // 丢失登记
	EventLoanDamaged          EventType = "loan_damaged"          // 损毁登记
	EventFineApplied          EventType = "fine_applied"          // 人工罚款
)

// ActorType 操作者类型
type ActorType string

const (
	ActorOperator ActorType = "admin"  // 馆员操作
	ActorSystem   ActorType = "system" // 清扫任务等系统行为
)

// 目标类型(与system_logs表的target_type列对齐)
const (
	TargetLoan        = "borrow"
	TargetBook        = "book"
	TargetReader      = "reader"
	TargetReservation = "reservation"
)

// Event 生命周期事件
// 引擎在每个操作提交后发出;投递与落盘是Sink的事,引擎不等待不重试
type Event struct {
	Type        EventType `json:"type"`
	ActorType   ActorType `json:"actor_type"`
	ActorID     uint      `json:"actor_id"`
	TargetType  string    `json:"target_type"`
	TargetID    uint      `json:"target_id"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Sink 审计事件接收器(AuditSink)
// 约定fire-and-forget:实现方自行处理失败(记日志/熔断),
// 不得把投递失败传染给借还主流程
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// NopSink 空实现(测试与降级用)
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
