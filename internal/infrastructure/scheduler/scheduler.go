package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// Sweep 清扫任务:给定业务日期,返回实际转换的记录数
type Sweep interface {
	Execute(ctx context.Context, today time.Time) (int, error)
}

// Scheduler 清扫调度器
// 设计说明:
// 1. 原系统用MySQL事件(daily check)在库内隐式跑清扫,
//    这里改为进程内cron调度,清扫成为可观测、可补扫的显式入口
// 2. 多实例部署时用Redis当日锁保证每个任务一天只跑一轮;
//    清扫本身幂等,锁只是避免重复劳动,抢锁失败直接跳过
// 3. 每轮清扫建立追踪Span并记录耗时/转换数指标
type Scheduler struct {
	cron      *cron.Cron
	sweepLock *redis.SweepLock
	tasks     []task
}

type task struct {
	name  string
	sweep Sweep
}

// NewScheduler 创建调度器
func NewScheduler(sweepLock *redis.SweepLock) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sweepLock: sweepLock,
	}
}

// Register 注册一个清扫任务
// name同时用作锁key片段与指标标签(如overdue/reservation)
func (s *Scheduler) Register(name string, sweep Sweep) {
	s.tasks = append(s.tasks, task{name: name, sweep: sweep})
}

// Start 按cron表达式启动每日清扫
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.RunAll(context.Background(), time.Now())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("清扫调度已启动: cron=%q tasks=%d", spec, len(s.tasks))
	return nil
}

// Stop 停止调度,等待进行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunAll 顺序执行全部清扫任务(cron触发,也可人工补扫)
func (s *Scheduler) RunAll(ctx context.Context, today time.Time) {
	for _, t := range s.tasks {
		s.runOne(ctx, t, today)
	}
}

func (s *Scheduler) runOne(ctx context.Context, t task, today time.Time) {
	ctx, span := tracing.StartSpan(ctx, "sweepd", "sweep."+t.name)
	defer span.End()

	acquired, err := s.sweepLock.TryAcquire(ctx, t.name, today)
	if err != nil {
		// Redis不可用时照常执行,幂等性兜底
		log.Printf("清扫锁获取异常(继续执行): task=%s err=%v", t.name, err)
	} else if !acquired {
		log.Printf("清扫已由其他实例执行: task=%s date=%s", t.name, today.Format("2006-01-02"))
		observeRun(t.name, "skipped")
		return
	}

	start := time.Now()
	count, err := t.sweep.Execute(ctx, today)
	elapsed := time.Since(start)

	if metrics.SweepDuration != nil {
		metrics.SweepDuration.WithLabelValues(t.name).Observe(elapsed.Seconds())
	}
	if metrics.SweepTransitionsTotal != nil && count > 0 {
		metrics.SweepTransitionsTotal.WithLabelValues(t.name).Add(float64(count))
	}

	if err != nil {
		span.RecordError(err)
		log.Printf("清扫执行失败: task=%s transitioned=%d err=%v trace=%s",
			t.name, count, err, tracing.ExtractTraceID(ctx))
		observeRun(t.name, "error")
		return
	}

	log.Printf("清扫完成: task=%s transitioned=%d elapsed=%s", t.name, count, elapsed)
	observeRun(t.name, "success")
}

func observeRun(taskName, result string) {
	if metrics.SweepRunsTotal != nil {
		metrics.SweepRunsTotal.WithLabelValues(taskName, result).Inc()
	}
}
