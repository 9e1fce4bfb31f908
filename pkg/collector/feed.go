package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"VendorRadar/pkg/messaging"
	"VendorRadar/pkg/model"
)

const (
	SubjectPOLines = "po.lines"
	SubjectPOLogs  = "po.logs"

	publishChunk = 200
)

// Subscriber 消息订阅接口
type Subscriber interface {
	Subscribe(streamName, consumerName, filterSubject string, handler messaging.MessageHandler) error
}

// Publisher 消息发布接口
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// POFeed 从 JetStream 消费订单数据并写入 Sink
type POFeed struct {
	sub      Subscriber
	sink     Sink
	consumer string
	onChange func()
}

// NewPOFeed 创建订单数据订阅，onChange 在每次成功写入后调用
func NewPOFeed(sub Subscriber, sink Sink, consumer string, onChange func()) *POFeed {
	if consumer == "" {
		consumer = "vendor-radar"
	}
	return &POFeed{sub: sub, sink: sink, consumer: consumer, onChange: onChange}
}

// Start 订阅 po.lines 与 po.logs
func (f *POFeed) Start() error {
	if err := f.sub.Subscribe(messaging.StreamPO, f.consumer+"-lines", SubjectPOLines, f.HandleLines); err != nil {
		return fmt.Errorf("订阅订单行失败: %w", err)
	}
	if err := f.sub.Subscribe(messaging.StreamPO, f.consumer+"-logs", SubjectPOLogs, f.HandleLogs); err != nil {
		return fmt.Errorf("订阅变更日志失败: %w", err)
	}
	return nil
}

// HandleLines 处理订单行消息，负载为单个对象或数组，缺少必填字段的记录被跳过
func (f *POFeed) HandleLines(data []byte) error {
	var lines []model.POLine
	if err := decodeOneOrMany(data, &lines); err != nil {
		return fmt.Errorf("解析订单行消息失败: %w", err)
	}

	valid := make([]model.POLine, 0, len(lines))
	for _, line := range lines {
		if err := validateLine(line); err != nil {
			log.Printf("跳过无效订单行 %q: %v", line.POLineID, err)
			continue
		}
		if line.AckStatus == "" {
			line.AckStatus = model.AckStatusPending
		}
		valid = append(valid, line)
	}
	if len(valid) == 0 {
		return nil
	}

	if err := f.sink.UpsertPOLines(context.Background(), valid); err != nil {
		return err
	}
	log.Printf("收到 %d 条订单行", len(valid))
	f.changed()
	return nil
}

// HandleLogs 处理变更日志消息
func (f *POFeed) HandleLogs(data []byte) error {
	var logs []model.POLog
	if err := decodeOneOrMany(data, &logs); err != nil {
		return fmt.Errorf("解析变更日志消息失败: %w", err)
	}

	valid := make([]model.POLog, 0, len(logs))
	for _, entry := range logs {
		if err := validateLog(entry); err != nil {
			log.Printf("跳过无效变更日志 %q: %v", entry.LogID, err)
			continue
		}
		valid = append(valid, entry)
	}
	if len(valid) == 0 {
		return nil
	}

	if err := f.sink.UpsertPOLogs(context.Background(), valid); err != nil {
		return err
	}
	log.Printf("收到 %d 条变更日志", len(valid))
	f.changed()
	return nil
}

func (f *POFeed) changed() {
	if f.onChange != nil {
		f.onChange()
	}
}

// decodeOneOrMany 接受 JSON 数组或单个对象
func decodeOneOrMany[T any](data []byte, out *[]T) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*out = []T{one}
	return nil
}

// PublishBatch 分块发布到 po.lines 与 po.logs
func PublishBatch(pub Publisher, batch Batch) error {
	for start := 0; start < len(batch.Lines); start += publishChunk {
		end := min(start+publishChunk, len(batch.Lines))
		if err := pub.Publish(SubjectPOLines, batch.Lines[start:end]); err != nil {
			return err
		}
	}
	for start := 0; start < len(batch.Logs); start += publishChunk {
		end := min(start+publishChunk, len(batch.Logs))
		if err := pub.Publish(SubjectPOLogs, batch.Logs[start:end]); err != nil {
			return err
		}
	}
	return nil
}
