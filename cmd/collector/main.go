package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"VendorRadar/pkg/collector"
	"VendorRadar/pkg/config"
	"VendorRadar/pkg/database"
	"VendorRadar/pkg/messaging"
)

// 用法: collector <file.csv|file.xlsx>...
// 启用 NATS 时发布到 po.lines / po.logs，否则直接写入 PostgreSQL
func main() {
	log.Println("启动订单数据导入...")

	files := os.Args[1:]
	if len(files) == 0 {
		log.Fatalf("用法: %s <file.csv|file.xlsx>...\n", filepath.Base(os.Args[0]))
	}

	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	if failed := run(cfg, files); failed > 0 {
		log.Printf("%d 个文件导入失败\n", failed)
		os.Exit(1)
	}
}

// run 导入全部文件，返回失败数
func run(cfg *config.Config, files []string) int {
	var publish func(collector.Batch) error
	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS.URL, cfg.NATS.ClientID+"-collector")
		if err != nil {
			log.Fatalf("连接NATS失败: %v\n", err)
		}
		defer natsClient.Close()

		publish = func(b collector.Batch) error {
			return collector.PublishBatch(natsClient, b)
		}
	} else {
		db, err := database.NewDatabase(cfg)
		if err != nil {
			log.Fatalf("连接数据库失败: %v\n", err)
		}
		defer db.Close()

		publish = func(b collector.Batch) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			return b.Write(ctx, db)
		}
	}

	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("读取文件 %s 失败: %v\n", path, err)
			failed++
			continue
		}

		batch, err := collector.ParseFile(path, data)
		if err != nil {
			log.Printf("解析文件 %s 失败: %v\n", path, err)
			failed++
			continue
		}
		if err := publish(batch); err != nil {
			log.Printf("导入文件 %s 失败: %v\n", path, err)
			failed++
			continue
		}
		log.Printf("文件 %s 已导入: %d 条订单行, %d 条变更日志\n", path, len(batch.Lines), len(batch.Logs))
	}

	return failed
}
