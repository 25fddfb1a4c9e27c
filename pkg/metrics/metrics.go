// Package metrics 提供基于Prometheus的指标收集
//
// 指标命名约定:
// - Counter以_total结尾(lending_operations_total)
// - Histogram以单位结尾(sweep_duration_seconds)
// - 标签只用有限枚举值(op/result/task),不用reader_id等高基数值
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化(防止重复注册)
	initialized bool

	// 借阅业务指标

	// LendingOperationsTotal 生命周期操作总数(Counter)
	// 标签:op(borrow/return/renew/reserve/...)、result(success/rejected/error)
	LendingOperationsTotal *prometheus.CounterVec

	// FinesAssessedTotal 累计产生罚款金额(分,Counter)
	FinesAssessedTotal prometheus.Counter

	// OpenLoansGauge 当前在借记录数(Gauge,清扫任务定期回填)
	OpenLoansGauge prometheus.Gauge

	// 清扫任务指标

	// SweepRunsTotal 清扫执行总数(Counter)
	// 标签:task(overdue/reservation)、result(success/skipped/error)
	SweepRunsTotal *prometheus.CounterVec

	// SweepTransitionsTotal 清扫实际转换的记录数(Counter)
	// 标签:task
	SweepTransitionsTotal *prometheus.CounterVec

	// SweepDuration 清扫耗时(Histogram)
	// 标签:task
	SweepDuration *prometheus.HistogramVec

	// 事件投递指标

	// EventsPublishedTotal 审计事件广播总数(Counter)
	// 标签:type(事件类型)、result(success/failure/rejected)
	EventsPublishedTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态(Gauge)
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 初始化所有Prometheus指标
// 必须在程序启动时调用一次,使用promauto注册到默认Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	LendingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lending_operations_total",
			Help: "借阅生命周期操作总数",
		},
		[]string{"op", "result"},
	)

	FinesAssessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lending_fines_assessed_total",
			Help: "累计产生罚款金额(分)",
		},
	)

	OpenLoansGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lending_open_loans",
			Help: "当前在借记录数",
		},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "清扫任务执行总数",
		},
		[]string{"task", "result"},
	)

	SweepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_transitions_total",
			Help: "清扫任务实际转换的记录数",
		},
		[]string{"task"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "sweep_duration_seconds",
			Help: "清扫任务耗时(秒)",
			// 清扫是批量DB操作,桶覆盖10ms到30s
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"task"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lending_events_published_total",
			Help: "审计事件广播总数",
		},
		[]string{"type", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)",
		},
		[]string{"name"},
	)
}

// ObserveOperation 记录一次生命周期操作
func ObserveOperation(op, result string) {
	if LendingOperationsTotal == nil {
		return
	}
	LendingOperationsTotal.WithLabelValues(op, result).Inc()
}

// SetOpenLoans 回填当前在借记录总数(逾期清扫每轮对账后调用)
func SetOpenLoans(n int64) {
	if OpenLoansGauge == nil {
		return
	}
	OpenLoansGauge.Set(float64(n))
}

// AddFine 累加产生的罚款金额(分)
func AddFine(amount int64) {
	if FinesAssessedTotal == nil || amount <= 0 {
		return
	}
	FinesAssessedTotal.Add(float64(amount))
}
