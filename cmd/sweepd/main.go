package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiebiao/library/internal/application/lending"
	"github.com/xiebiao/library/internal/domain/audit"
	infraaudit "github.com/xiebiao/library/internal/infrastructure/audit"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/infrastructure/scheduler"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/tracing"
)

// main 借阅清扫守护进程入口
// 说明:手动依赖注入(wire.go提供等价的Wire配置,wire gen可生成)
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())
	fmt.Printf("  - 清扫计划: %s\n", cfg.Policy.SweepCron)

	// 2. 初始化指标
	metrics.InitMetrics()

	// 3. 初始化追踪
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("初始化追踪失败: %v", err)
		}
		defer shutdown(context.Background())
	}

	// 4. 初始化数据库
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	if cfg.Server.Mode == "debug" {
		if err := mysql.AutoMigrate(db); err != nil {
			log.Fatalf("自动建表失败: %v", err)
		}
	}

	// 5. 初始化Redis
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 6. 审计事件链路:落库,启用MQ时再加广播
	sinks := []audit.Sink{mysql.NewLogSink(db)}
	if cfg.MQ.Enabled {
		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			log.Fatalf("初始化消息发布者失败: %v", err)
		}
		defer publisher.Close()
		sinks = append(sinks, infraaudit.NewMQSink(publisher))
	}
	sink := infraaudit.NewCompositeSink(sinks...)

	// 7. 仓储与事务管理器
	txManager := mysql.NewTxManager(db)
	bookRepo := redis.NewCachedBookRepository(mysql.NewBookRepository(db), redisClient, cfg.Redis.CacheTTL)
	loanRepo := mysql.NewLoanRepository(db)
	rsvRepo := mysql.NewReservationRepository(db)

	// 8. 清扫用例与调度
	overdueSweep := lending.NewSweepOverdueLoansUseCase(loanRepo, sink)
	reservationSweep := lending.NewSweepExpiredReservationsUseCase(txManager, rsvRepo, loanRepo, bookRepo, sink)

	sched := scheduler.NewScheduler(redis.NewSweepLock(redisClient))
	sched.Register("overdue", overdueSweep)
	sched.Register("reservation", reservationSweep)
	if err := sched.Start(cfg.Policy.SweepCron); err != nil {
		log.Fatalf("启动清扫调度失败: %v", err)
	}
	defer sched.Stop()

	// 9. 暴露Prometheus指标
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		http.Handle("/metrics", promhttp.Handler())
		fmt.Printf("\n🚀 清扫守护进程启动成功\n")
		fmt.Printf("   指标地址: http://localhost%s/metrics\n\n", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatalf("指标服务启动失败: %v", err)
		}
	}()

	// 10. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到退出信号,正在停止...")
}
