// pkg/database/knowledge.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"VendorRadar/pkg/knowledge"
	"VendorRadar/pkg/model"
)

// KnowledgeDB 知识库文件表，实现 knowledge.Store
type KnowledgeDB struct {
	db *gorm.DB
}

func (d *Database) Knowledge() *KnowledgeDB {
	return &KnowledgeDB{db: d.db}
}

// Add 同名文件覆盖
func (k *KnowledgeDB) Add(ctx context.Context, file model.KnowledgeFile) error {
	if strings.TrimSpace(file.Name) == "" {
		return knowledge.ErrEmptyName
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now()
	}

	err := k.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "uploaded_at"}),
		}).
		Create(&file).Error
	if err != nil {
		return fmt.Errorf("保存知识库文件失败: %w", err)
	}
	return nil
}

func (k *KnowledgeDB) Delete(ctx context.Context, name string) error {
	result := k.db.WithContext(ctx).Where("name = ?", name).Delete(&model.KnowledgeFile{})
	if result.Error != nil {
		return fmt.Errorf("删除知识库文件失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", knowledge.ErrNotFound, name)
	}
	return nil
}

// List 最新上传的在前
func (k *KnowledgeDB) List(ctx context.Context) ([]model.KnowledgeFileInfo, error) {
	var infos []model.KnowledgeFileInfo
	err := k.db.WithContext(ctx).Model(&model.KnowledgeFile{}).
		Select("name", "uploaded_at").
		Order("uploaded_at DESC").
		Find(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("查询知识库文件失败: %w", err)
	}
	return infos, nil
}

func (k *KnowledgeDB) Clear(ctx context.Context) error {
	err := k.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.KnowledgeFile{}).Error
	if err != nil {
		return fmt.Errorf("清空知识库失败: %w", err)
	}
	return nil
}

// Content 按上传时间顺序拼接
func (k *KnowledgeDB) Content(ctx context.Context) (string, error) {
	var files []model.KnowledgeFile
	if err := k.db.WithContext(ctx).Order("uploaded_at ASC").Find(&files).Error; err != nil {
		return "", fmt.Errorf("读取知识库内容失败: %w", err)
	}
	return knowledge.Concatenate(files), nil
}
