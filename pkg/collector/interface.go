package collector

import (
	"context"

	"VendorRadar/pkg/model"
)

// Sink 订单数据写入目标
type Sink interface {
	UpsertPOLines(ctx context.Context, lines []model.POLine) error
	UpsertPOLogs(ctx context.Context, logs []model.POLog) error
}

// Batch 一次导入解析出的订单行与日志
type Batch struct {
	Lines []model.POLine `json:"lines"`
	Logs  []model.POLog  `json:"logs"`
}

// Empty 是否没有任何数据
func (b Batch) Empty() bool {
	return len(b.Lines) == 0 && len(b.Logs) == 0
}

// Write 写入 Sink，先行后日志
func (b Batch) Write(ctx context.Context, sink Sink) error {
	if err := sink.UpsertPOLines(ctx, b.Lines); err != nil {
		return err
	}
	return sink.UpsertPOLogs(ctx, b.Logs)
}
