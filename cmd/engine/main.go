package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VendorRadar/pkg/app"
	"VendorRadar/pkg/config"
)

func main() {
	log.Println("启动供应商监控引擎...")

	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}
	if !cfg.NATS.Enabled {
		log.Println("警告: 未启用NATS，告警快照只写日志")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, "engine")
	if err != nil {
		log.Fatalf("初始化引擎失败: %v\n", err)
	}
	defer a.Close()

	if err := a.Recompute(ctx); err != nil {
		log.Printf("首次重算失败: %v\n", err)
	}
	if err := a.StartFeed(cfg.App.Name + "-engine"); err != nil {
		log.Fatalf("订阅订单数据失败: %v\n", err)
	}
	if err := a.StartScheduler(); err != nil {
		log.Fatalf("启动调度器失败: %v\n", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("正在关闭供应商监控引擎...")
}
