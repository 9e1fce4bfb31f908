// pkg/database/po.go
package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"VendorRadar/pkg/model"
)

const batchSize = 500

type POLineDB struct {
	db *gorm.DB
}

func (d *Database) POLine() *POLineDB {
	return &POLineDB{db: d.db}
}

// List 按创建时间顺序读取全部订单行
func (p *POLineDB) List(ctx context.Context) ([]model.POLine, error) {
	var lines []model.POLine
	if err := p.db.WithContext(ctx).Order("creation_date ASC, po_line_id ASC").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("查询订单行失败: %w", err)
	}
	return lines, nil
}

// Upsert 按主键新增或覆盖
func (p *POLineDB) Upsert(ctx context.Context, lines []model.POLine) error {
	if len(lines) == 0 {
		return nil
	}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&lines, batchSize).Error
	if err != nil {
		return fmt.Errorf("保存订单行失败: %w", err)
	}
	return nil
}

// ListByVendor 单个供应商的订单行
func (p *POLineDB) ListByVendor(ctx context.Context, vendor string) ([]model.POLine, error) {
	var lines []model.POLine
	err := p.db.WithContext(ctx).Where("vendor = ?", vendor).
		Order("creation_date ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("查询供应商订单行失败: %w", err)
	}
	return lines, nil
}

type POLogDB struct {
	db *gorm.DB
}

func (d *Database) POLog() *POLogDB {
	return &POLogDB{db: d.db}
}

// List 读取全部变更日志
func (p *POLogDB) List(ctx context.Context) ([]model.POLog, error) {
	var logs []model.POLog
	if err := p.db.WithContext(ctx).Order("change_date ASC, log_id ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("查询变更日志失败: %w", err)
	}
	return logs, nil
}

// Upsert 按主键新增或覆盖
func (p *POLogDB) Upsert(ctx context.Context, logs []model.POLog) error {
	if len(logs) == 0 {
		return nil
	}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&logs, batchSize).Error
	if err != nil {
		return fmt.Errorf("保存变更日志失败: %w", err)
	}
	return nil
}

// ReplacePOData 在一个事务内清空并写入订单行和日志
func (d *Database) ReplacePOData(ctx context.Context, lines []model.POLine, logs []model.POLog) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.POLog{}).Error; err != nil {
			return fmt.Errorf("清空变更日志失败: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.POLine{}).Error; err != nil {
			return fmt.Errorf("清空订单行失败: %w", err)
		}
		if err := (&POLineDB{db: tx}).Upsert(ctx, lines); err != nil {
			return err
		}
		return (&POLogDB{db: tx}).Upsert(ctx, logs)
	})
}
