// pkg/model/knowledge.go
package model

import "time"

// KnowledgeFile 知识库文件，按名称唯一
type KnowledgeFile struct {
	Name       string    `gorm:"type:varchar(255);primaryKey" json:"name"`
	Content    string    `gorm:"type:text" json:"content,omitempty"`
	UploadedAt time.Time `gorm:"index" json:"uploadedAt"`
}

// TableName 自定义表名
func (KnowledgeFile) TableName() string {
	return "knowledge_files"
}

// KnowledgeFileInfo 列表展示用
type KnowledgeFileInfo struct {
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploadedAt"`
}
