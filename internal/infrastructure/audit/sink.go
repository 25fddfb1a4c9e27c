package audit

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
)

// MQSink 审计事件广播Sink(RabbitMQ)
// 设计说明:
// 1. 路由键为lending.<事件类型>(如lending.borrowed),
//    订阅方用topic通配符lending.*接收全部生命周期事件
// 2. 发布经过熔断器:MQ故障时连续失败触发熔断,后续事件快速丢弃,
//    避免每次借还都等待MQ超时;事件已落库(system_logs),丢广播可追溯
type MQSink struct {
	publisher *mq.Publisher
	breaker   *circuitbreaker.CircuitBreaker
}

// NewMQSink 创建MQ广播Sink
func NewMQSink(publisher *mq.Publisher) *MQSink {
	breaker := circuitbreaker.NewCircuitBreaker("event-publisher", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		log.Printf("熔断器状态变化: %s %s → %s", name, from, to)
		if metrics.CircuitBreakerState != nil {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	})
	return &MQSink{publisher: publisher, breaker: breaker}
}

// Emit 广播事件
func (s *MQSink) Emit(ctx context.Context, e audit.Event) {
	err := s.breaker.Execute(func() error {
		return s.publisher.Publish("lending."+string(e.Type), e)
	})

	switch {
	case err == nil:
		observePublish(e, "success")
	case err == circuitbreaker.ErrOpenState:
		observePublish(e, "rejected")
	default:
		log.Printf("事件广播失败: type=%s target=%s/%d err=%v",
			e.Type, e.TargetType, e.TargetID, err)
		observePublish(e, "failure")
	}
}

func observePublish(e audit.Event, result string) {
	if metrics.EventsPublishedTotal != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(e.Type), result).Inc()
	}
}

// CompositeSink 组合Sink:事件扇出到多个接收器
// 典型组合:先落库(logSink)再广播(MQSink)
type CompositeSink struct {
	sinks []audit.Sink
}

// NewCompositeSink 创建组合Sink
func NewCompositeSink(sinks ...audit.Sink) *CompositeSink {
	return &CompositeSink{sinks: sinks}
}

// Emit 依次分发事件,单个Sink的失败不影响其他Sink
func (s *CompositeSink) Emit(ctx context.Context, e audit.Event) {
	for _, sink := range s.sinks {
		sink.Emit(ctx, e)
	}
}
