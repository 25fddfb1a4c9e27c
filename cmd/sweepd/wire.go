//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 运行 `wire gen ./cmd/sweepd` 生成wire_gen.go;
// main.go当前使用等价的手动装配
package main

import (
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/application/lending"
	"github.com/xiebiao/library/internal/domain/audit"
	"github.com/xiebiao/library/internal/domain/book"
	infraaudit "github.com/xiebiao/library/internal/infrastructure/audit"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/infrastructure/scheduler"
	"github.com/xiebiao/library/pkg/mq"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,
	mysql.NewDB,
	redis.NewClient,
	redis.NewSweepLock,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	provideBookRepository,
	mysql.NewLoanRepository,
	mysql.NewReservationRepository,
	mysql.NewTxManager,
	wire.Bind(new(lending.Transactor), new(*mysql.TxManager)),
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	lending.NewSweepOverdueLoansUseCase,
	lending.NewSweepExpiredReservationsUseCase,
)

// provideBookRepository 图书仓储(带Redis缓存装饰)
func provideBookRepository(db *gorm.DB, client *goredis.Client, cfg *config.Config) book.Repository {
	return redis.NewCachedBookRepository(mysql.NewBookRepository(db), client, cfg.Redis.CacheTTL)
}

// provideAuditSink 审计事件链路:落库 + 可选的MQ广播
func provideAuditSink(db *gorm.DB, cfg *config.Config) (audit.Sink, error) {
	sinks := []audit.Sink{mysql.NewLogSink(db)}
	if cfg.MQ.Enabled {
		publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, infraaudit.NewMQSink(publisher))
	}
	return infraaudit.NewCompositeSink(sinks...), nil
}

// provideScheduler 组装清扫调度器
func provideScheduler(
	sweepLock *redis.SweepLock,
	overdue *lending.SweepOverdueLoansUseCase,
	reservation *lending.SweepExpiredReservationsUseCase,
) *scheduler.Scheduler {
	sched := scheduler.NewScheduler(sweepLock)
	sched.Register("overdue", overdue)
	sched.Register("reservation", reservation)
	return sched
}

// InitializeScheduler 构建完整的清扫调度器
func InitializeScheduler() (*scheduler.Scheduler, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		applicationSet,
		provideAuditSink,
		provideScheduler,
	)
	return nil, nil
}
