package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamPO     = "PO_STREAM"
	StreamAlerts = "ALERTS_STREAM"
)

// NATSClient NATS JetStream 客户端
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	ctx       context.Context
	cancel    context.CancelFunc
	consumers map[string]jetstream.Consumer
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

// MessageHandler 消息处理函数，返回错误时消息被 Nak 重投
type MessageHandler func(data []byte) error

// NewNATSClient 连接 NATS 并确保订单流与告警流存在
func NewNATSClient(natsURL, clientName string) (*NATSClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(clientName),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		ctx:       ctx,
		cancel:    cancel,
		consumers: make(map[string]jetstream.Consumer),
	}

	if err := client.setupStreams(); err != nil {
		log.Printf("警告: 设置Streams失败: %v", err)
	}
	return client, nil
}

// streamConfigs 订单数据保留 30 天，告警保留 7 天
func streamConfigs() []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:        StreamPO,
			Subjects:    []string{"po.*"},
			Description: "采购订单行与变更日志",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     200000,
			MaxBytes:    500 * 1024 * 1024,
			MaxAge:      30 * 24 * time.Hour,
		},
		{
			Name:        StreamAlerts,
			Subjects:    []string{"alerts.*"},
			Description: "供应商告警快照与严重告警",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     50000,
			MaxBytes:    50 * 1024 * 1024,
			MaxAge:      7 * 24 * time.Hour,
		},
	}
}

func (c *NATSClient) setupStreams() error {
	var errs []error
	for _, cfg := range streamConfigs() {
		if _, err := c.jetStream.CreateOrUpdateStream(c.ctx, cfg); err != nil {
			errs = append(errs, fmt.Errorf("创建/更新Stream %s 失败: %w", cfg.Name, err))
			continue
		}
		log.Printf("Stream %s 设置成功", cfg.Name)
	}
	return errors.Join(errs...)
}

// Publish 发布消息，非字节和字符串的数据按 JSON 序列化
func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := encode(data)
	if err != nil {
		return err
	}

	if _, err := c.jetStream.Publish(c.ctx, subject, payload); err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}
	log.Printf("发布消息到主题: %s, 数据大小: %d bytes", subject, len(payload))
	return nil
}

func encode(data interface{}) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("序列化数据失败: %w", err)
		}
		return payload, nil
	}
}

// Subscribe 创建持久消费者并在后台处理消息
func (c *NATSClient) Subscribe(streamName, consumerName, filterSubject string, handler MessageHandler) error {
	consumer, err := c.jetStream.CreateOrUpdateConsumer(c.ctx, streamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		Description:   fmt.Sprintf("%s 消费者", consumerName),
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("创建消费者 %s 失败: %w", consumerName, err)
	}

	c.mu.Lock()
	c.consumers[consumerName] = consumer
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consumeMessages(consumer, consumerName, handler)

	log.Printf("已订阅 %s (Stream: %s, Consumer: %s)", filterSubject, streamName, consumerName)
	return nil
}

func (c *NATSClient) consumeMessages(consumer jetstream.Consumer, consumerName string, handler MessageHandler) {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("消费者 %s 异常退出: %v", consumerName, r)
		}
	}()

	iter, err := consumer.Messages(jetstream.PullMaxMessages(10))
	if err != nil {
		log.Printf("获取 %s 消息迭代器失败: %v", consumerName, err)
		return
	}
	go func() {
		<-c.ctx.Done()
		iter.Stop()
	}()

	for {
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) || c.ctx.Err() != nil {
				log.Printf("消费者 %s 收到停止信号", consumerName)
				return
			}
			log.Printf("获取 %s 消息失败: %v", consumerName, err)
			time.Sleep(time.Second)
			continue
		}

		if err := handler(msg.Data()); err != nil {
			log.Printf("消费者 %s 处理消息失败: %v", consumerName, err)
			msg.Nak()
		} else {
			msg.Ack()
		}
	}
}

// Check 健康检查
func (c *NATSClient) Check(ctx context.Context) error {
	if !c.IsConnected() {
		return fmt.Errorf("NATS未连接")
	}
	if _, err := c.jetStream.AccountInfo(ctx); err != nil {
		return fmt.Errorf("JetStream不可用: %w", err)
	}
	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close 停止消费者并关闭连接
func (c *NATSClient) Close() error {
	log.Println("正在关闭NATS连接...")
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.consumers = make(map[string]jetstream.Consumer)
	c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
	log.Println("NATS连接已关闭")
	return nil
}
