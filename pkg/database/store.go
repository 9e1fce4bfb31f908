// pkg/database/store.go
package database

import (
	"context"

	"VendorRadar/pkg/knowledge"
	"VendorRadar/pkg/model"
	"VendorRadar/pkg/repository"
)

var (
	_ repository.Store = (*Database)(nil)
	_ knowledge.Store  = (*KnowledgeDB)(nil)
)

func (d *Database) ListPOLines(ctx context.Context) ([]model.POLine, error) {
	return d.POLine().List(ctx)
}

func (d *Database) ListPOLogs(ctx context.Context) ([]model.POLog, error) {
	return d.POLog().List(ctx)
}

func (d *Database) ListVendorRules(ctx context.Context) ([]model.VendorRule, error) {
	return d.VendorRule().List(ctx)
}

func (d *Database) UpsertPOLines(ctx context.Context, lines []model.POLine) error {
	return d.POLine().Upsert(ctx, lines)
}

func (d *Database) UpsertPOLogs(ctx context.Context, logs []model.POLog) error {
	return d.POLog().Upsert(ctx, logs)
}

func (d *Database) CreateVendorRule(ctx context.Context, rule *model.VendorRule) error {
	return d.VendorRule().Create(ctx, rule)
}

func (d *Database) DeleteVendorRule(ctx context.Context, id string) error {
	return d.VendorRule().Delete(ctx, id)
}
