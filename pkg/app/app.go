package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"VendorRadar/pkg/collector"
	"VendorRadar/pkg/config"
	"VendorRadar/pkg/database"
	"VendorRadar/pkg/engine"
	"VendorRadar/pkg/knowledge"
	"VendorRadar/pkg/messaging"
	"VendorRadar/pkg/model"
	"VendorRadar/pkg/monitor"
	"VendorRadar/pkg/notification"
	"VendorRadar/pkg/repository"
	"VendorRadar/pkg/scheduler"
)

// App 各服务共用的组件
type App struct {
	Config     *config.Config
	Store      repository.Store
	Knowledge  knowledge.Store
	NATS       *messaging.NATSClient
	Engine     *engine.MonitorEngine
	Dispatcher *notification.Dispatcher
	Monitor    *monitor.Monitor

	db        *database.Database
	scheduler *scheduler.Scheduler
}

// New 按配置组装存储、消息、通知与监控引擎，role 用于区分 NATS 客户端名
func New(ctx context.Context, cfg *config.Config, role string) (*App, error) {
	a := &App{
		Config:  cfg,
		Monitor: monitor.NewMonitor(monitor.LogAlert),
	}

	if err := a.setupStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.NATS.Enabled {
		client, err := messaging.NewNATSClient(cfg.NATS.URL, cfg.NATS.ClientID+"-"+role)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.NATS = client
		a.Monitor.RegisterComponent("nats", client)
	}

	a.Dispatcher = notification.NewDispatcher()
	a.Dispatcher.Register(model.ChannelTeams, notification.NewTeamsSender(cfg.Notification.Timeout))
	a.Dispatcher.Register(model.ChannelEmail, notification.NewEmailSender(notification.SMTPConfig{
		Host:     cfg.Notification.SMTP.Host,
		Port:     cfg.Notification.SMTP.Port,
		Username: cfg.Notification.SMTP.Username,
		Password: cfg.Notification.SMTP.Password,
		From:     cfg.Notification.SMTP.From,
	}))

	opts := []engine.MonitorOption{engine.WithNotifier(a.Dispatcher)}
	if a.NATS != nil {
		a.Dispatcher.Register(model.ChannelNATS, notification.NewNATSSender(a.NATS))
		opts = append(opts, engine.WithPublisher(a.NATS))
	}

	a.Engine = engine.NewMonitorEngine(a.Store, cfg.Thresholds(), cfg.Notification.NotificationSettings, opts...)
	a.Monitor.RegisterComponent("engine", a.Engine)
	return a, nil
}

func (a *App) setupStorage(ctx context.Context) error {
	switch a.Config.App.Storage {
	case "postgres":
		db, err := database.NewDatabase(a.Config)
		if err != nil {
			return err
		}
		a.db = db
		a.Store = db
		a.Knowledge = db.Knowledge()
		a.Monitor.RegisterComponent("database", monitor.CheckerFunc(db.Ping))
	case "memory", "":
		a.Store = repository.NewRepository()
		a.Knowledge = knowledge.NewMemoryStore()
	default:
		return fmt.Errorf("未知的存储类型: %s", a.Config.App.Storage)
	}

	if err := repository.SeedVendorRules(ctx, a.Store, a.Config.Monitoring.VendorRules); err != nil {
		log.Printf("警告: %v", err)
	}
	return nil
}

// Recompute 重算并丢弃快照，供调度器与订阅回调使用
func (a *App) Recompute(ctx context.Context) error {
	_, err := a.Engine.Recompute(ctx)
	return err
}

// StartFeed 订阅 NATS 订单数据，每批写入后重算
func (a *App) StartFeed(consumer string) error {
	if a.NATS == nil {
		return nil
	}
	feed := collector.NewPOFeed(a.NATS, a.Store, consumer, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := a.Recompute(ctx); err != nil {
			log.Printf("订单数据更新后重算失败: %v", err)
		}
	})
	return feed.Start()
}

// StartScheduler 启动定时重算、跨日重算与健康检查
func (a *App) StartScheduler() error {
	a.scheduler = scheduler.NewScheduler(scheduler.RecomputeFunc(a.Recompute), a.Monitor, scheduler.Specs{
		Recompute:   a.Config.Scheduler.RecomputeSpec,
		Rollover:    a.Config.Scheduler.RolloverSpec,
		HealthCheck: a.Config.Scheduler.HealthCheckSpec,
	}, time.Local)
	return a.scheduler.Start()
}

// Close 按启动的逆序释放资源
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.NATS != nil {
		a.NATS.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("关闭数据库失败: %v", err)
		}
	}
}
