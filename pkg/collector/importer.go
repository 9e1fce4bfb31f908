package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseCSV 解析单张 CSV 表，根据表头判断内容类型
func ParseCSV(r io.Reader) (Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Batch{}, fmt.Errorf("读取CSV失败: %w", err)
	}
	if len(records) == 0 {
		return Batch{}, nil
	}

	kind, err := DetectKind(records[0])
	if err != nil {
		return Batch{}, err
	}
	return parseRows(kind, records[0], records[1:])
}

// ParseXLSX 解析工作簿，名为 po_lines / po_logs 的工作表优先，否则按表头识别每张表
func ParseXLSX(r io.Reader) (Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Batch{}, fmt.Errorf("打开XLSX失败: %w", err)
	}
	defer f.Close()

	var batch Batch
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Batch{}, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		kind := Kind(strings.ToLower(strings.TrimSpace(sheet)))
		if kind != KindLines && kind != KindLogs {
			if kind, err = DetectKind(rows[0]); err != nil {
				log.Printf("跳过工作表 %s: %v", sheet, err)
				continue
			}
		}

		part, err := parseRows(kind, rows[0], rows[1:])
		if err != nil {
			return Batch{}, fmt.Errorf("工作表 %s: %w", sheet, err)
		}
		batch.Lines = append(batch.Lines, part.Lines...)
		batch.Logs = append(batch.Logs, part.Logs...)
	}
	return batch, nil
}

// ParseFile 按扩展名选择解析器
func ParseFile(name string, data []byte) (Batch, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(bytes.NewReader(data))
	case ".xlsx", ".xlsm":
		return ParseXLSX(bytes.NewReader(data))
	default:
		return Batch{}, fmt.Errorf("不支持的文件类型: %s", name)
	}
}

// Importer 文件导入器
type Importer struct {
	sink Sink
}

// NewImporter 创建导入器
func NewImporter(sink Sink) *Importer {
	return &Importer{sink: sink}
}

// Import 解析并写入，返回导入的批次
func (i *Importer) Import(ctx context.Context, name string, data []byte) (Batch, error) {
	batch, err := ParseFile(name, data)
	if err != nil {
		return Batch{}, err
	}
	if batch.Empty() {
		return batch, fmt.Errorf("文件 %s 中没有数据", name)
	}
	if err := batch.Write(ctx, i.sink); err != nil {
		return Batch{}, fmt.Errorf("写入导入数据失败: %w", err)
	}

	log.Printf("导入 %s 完成: %d 条订单行, %d 条变更日志", name, len(batch.Lines), len(batch.Logs))
	return batch, nil
}
