package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Recomputer 可重新计算供应商快照的组件
type Recomputer interface {
	Recompute(ctx context.Context) error
}

// RecomputeFunc 函数适配为 Recomputer
type RecomputeFunc func(ctx context.Context) error

func (f RecomputeFunc) Recompute(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker 健康检查入口
type HealthChecker interface {
	CheckAll(ctx context.Context)
}

// Specs cron 表达式
type Specs struct {
	Recompute   string
	Rollover    string
	HealthCheck string
}

// Scheduler 任务调度器
type Scheduler struct {
	cron     *cron.Cron
	engine   Recomputer
	health   HealthChecker
	specs    Specs
	timeout  time.Duration
	location *time.Location
}

// NewScheduler 创建任务调度器，health 可为空
func NewScheduler(engine Recomputer, health HealthChecker, specs Specs, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		engine:   engine,
		health:   health,
		specs:    specs,
		timeout:  2 * time.Minute,
		location: loc,
	}
}

// Start 注册任务并启动
func (s *Scheduler) Start() error {
	if s.specs.Recompute != "" {
		if _, err := s.cron.AddFunc(s.specs.Recompute, func() { s.recompute("定时") }); err != nil {
			return fmt.Errorf("注册重算任务失败: %w", err)
		}
	}

	// 跨日后逾期判定随日期变化
	if s.specs.Rollover != "" {
		if _, err := s.cron.AddFunc(s.specs.Rollover, func() { s.recompute("跨日") }); err != nil {
			return fmt.Errorf("注册跨日任务失败: %w", err)
		}
	}

	if s.health != nil && s.specs.HealthCheck != "" {
		if _, err := s.cron.AddFunc(s.specs.HealthCheck, s.monitorHealth); err != nil {
			return fmt.Errorf("注册健康检查任务失败: %w", err)
		}
	}

	s.cron.Start()
	log.Printf("调度器已启动, 共 %d 个任务", len(s.cron.Entries()))
	return nil
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recompute(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.engine.Recompute(ctx); err != nil {
		log.Printf("%s重算失败: %v", reason, err)
		return
	}
	log.Printf("%s重算完成, 耗时 %v", reason, time.Since(start))
}

func (s *Scheduler) monitorHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.health.CheckAll(ctx)
}
