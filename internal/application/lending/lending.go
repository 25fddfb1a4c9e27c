// Package lending 实现借阅生命周期引擎
//
// 设计说明:
// 1. 每个操作一个用例(UseCase),操作的校验/写入全部包在一个事务里,
//    审计事件在事务提交后发出
// 2. 用例依赖domain仓储接口与Transactor接口,不依赖具体存储实现,
//    测试时用内存假仓储替换
// 3. 核心不变量:
//    - 每本书任意时刻至多一条在借记录(borrowed/overdue)
//    - 读者在借数量不超过MaxBorrowCount
//    - 预约按FIFO履约
//    图书/读者上的状态字段是派生状态,每次操作在事务内对台账对账
package lending

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// Transactor 事务边界接口
// 由mysql.TxManager实现;fn返回error时整个操作回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// observeOperation 按结果分类记录操作指标
// rejected指业务规则拒绝(4xxxx错误码),error指存储层失败
func observeOperation(op string, err error) {
	switch {
	case err == nil:
		metrics.ObserveOperation(op, "success")
	case errors.CodeOf(err) >= errors.ErrCodeInternal:
		metrics.ObserveOperation(op, "error")
	default:
		metrics.ObserveOperation(op, "rejected")
	}
}

// operatorEvent 构造馆员操作的审计事件
func operatorEvent(eventType audit.EventType, operatorID uint, targetType string, targetID uint, description string, at time.Time) audit.Event {
	return audit.Event{
		Type:        eventType,
		ActorType:   audit.ActorOperator,
		ActorID:     operatorID,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
		OccurredAt:  at,
	}
}

// systemEvent 构造清扫任务的审计事件
func systemEvent(eventType audit.EventType, targetType string, targetID uint, description string, at time.Time) audit.Event {
	return audit.Event{
		Type:        eventType,
		ActorType:   audit.ActorSystem,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
		OccurredAt:  at,
	}
}
