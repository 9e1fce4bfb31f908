package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// ServerOptions HTTP 服务参数
type ServerOptions struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建新的API服务器
func NewServer(opts ServerOptions) *Server {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         600,
	})

	srv := &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	return &Server{
		router: router,
		srv:    srv,
	}
}

// Handler 带 CORS 的完整处理链
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(h *Handlers) {
	s.router.GET("/health", h.HealthCheck)
	s.router.GET("/ready", h.ReadinessCheck)

	v1 := s.router.Group("/api/v1")
	{
		// 供应商看板
		v1.GET("/vendors", h.GetVendors)
		v1.POST("/vendors/query", h.QueryVendors)
		v1.GET("/vendors/:name/trend", h.GetVendorTrend)
		v1.GET("/alerts", h.GetAlerts)
		v1.POST("/recompute", h.Recompute)

		// 监控配置
		v1.GET("/thresholds", h.GetThresholds)
		v1.PUT("/thresholds", h.UpdateThresholds)
		v1.GET("/rules", h.ListRules)
		v1.POST("/rules", h.CreateRule)
		v1.DELETE("/rules/:id", h.DeleteRule)
		v1.GET("/notifications", h.GetNotificationSettings)
		v1.PUT("/notifications", h.UpdateNotificationSettings)

		// 数据导入
		v1.POST("/po/import", h.ImportPOData)

		// 知识库
		v1.GET("/knowledge", h.ListKnowledge)
		v1.POST("/knowledge", h.UploadKnowledge)
		v1.DELETE("/knowledge", h.ClearKnowledge)
		v1.DELETE("/knowledge/:name", h.DeleteKnowledge)

		// 智能分析
		ai := v1.Group("/ai")
		ai.POST("/analysis", h.Analyze)
		ai.POST("/translate", h.Translate)
		ai.POST("/simulate", h.Simulate)
		ai.POST("/risk", h.AssessRisk)
	}
}

// Start 启动服务器并阻塞到收到退出信号
func (s *Server) Start() {
	go func() {
		log.Printf("API服务器启动在 %s\n", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("服务器关闭失败: %v\n", err)
		return
	}
	log.Println("服务器已关闭")
}
