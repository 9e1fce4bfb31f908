package main

import (
	"context"
	"log"
	"time"

	"VendorRadar/pkg/api"
	"VendorRadar/pkg/app"
	"VendorRadar/pkg/config"
	"VendorRadar/pkg/llm"
)

func main() {
	log.Println("启动API服务...")

	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, "api")
	if err != nil {
		log.Fatalf("初始化服务失败: %v\n", err)
	}
	defer a.Close()

	if err := a.Recompute(ctx); err != nil {
		log.Printf("首次重算失败: %v\n", err)
	}
	if err := a.StartFeed(cfg.App.Name + "-api"); err != nil {
		log.Fatalf("订阅订单数据失败: %v\n", err)
	}
	if err := a.StartScheduler(); err != nil {
		log.Fatalf("启动调度器失败: %v\n", err)
	}

	deps := api.Dependencies{
		Engine:    a.Engine,
		Store:     a.Store,
		Knowledge: a.Knowledge,
		Monitor:   a.Monitor,
		MaxUpload: cfg.API.MaxUploadMB << 20,
	}

	// 未配置大模型网关时智能分析接口返回 503
	if cfg.LLM.APIURL != "" {
		client := llm.NewLLMClient(cfg.LLM.APIURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
		if cfg.LLM.Temperature > 0 {
			client.SetTemperature(cfg.LLM.Temperature)
		}
		deps.AI = llm.NewService(client, a.Knowledge)
	}

	server := api.NewServer(api.ServerOptions{
		Port:           cfg.API.Port,
		ReadTimeout:    cfg.API.ReadTimeout,
		WriteTimeout:   cfg.API.WriteTimeout,
		AllowedOrigins: cfg.API.AllowedOrigins,
	})
	server.SetupRoutes(api.NewHandlers(deps))
	server.Start()
}
