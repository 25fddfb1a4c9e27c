package mysql

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/audit"
)

// logSink 审计事件落盘实现(system_logs表)
// 设计说明:
// 1. 实现audit.Sink接口,每个生命周期转换在这里留下一条操作日志
// 2. 落盘在操作事务提交之后执行,写失败只记错误日志不影响主流程
//    (台账本身是权威记录,system_logs是追溯辅助)
type logSink struct {
	db *gorm.DB
}

// NewLogSink 创建审计落盘Sink
func NewLogSink(db *gorm.DB) audit.Sink {
	return &logSink{db: db}
}

// Emit 写入一条操作日志
func (s *logSink) Emit(ctx context.Context, e audit.Event) {
	model := &SystemLogModel{
		UserType:    string(e.ActorType),
		UserID:      e.ActorID,
		Action:      string(e.Type),
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		Description: e.Description,
		CreatedAt:   e.OccurredAt,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		log.Printf("审计日志写入失败: action=%s target=%s/%d err=%v",
			e.Type, e.TargetType, e.TargetID, err)
	}
}
