// Package knowledge 根因分析使用的参考资料库
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"VendorRadar/pkg/model"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("知识库文件不存在")

// ErrEmptyName 文件名为空
var ErrEmptyName = errors.New("知识库文件名不能为空")

// Store 按名称存取的文本资料库
type Store interface {
	Add(ctx context.Context, file model.KnowledgeFile) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]model.KnowledgeFileInfo, error)
	Clear(ctx context.Context) error
	Content(ctx context.Context) (string, error)
}

// Concatenate 按存储顺序拼接全部文件内容，没有文件时返回空串
func Concatenate(files []model.KnowledgeFile) string {
	if len(files) == 0 {
		return ""
	}

	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fmt.Sprintf("--- Start of %s ---\n\n%s\n\n--- End of %s ---", f.Name, f.Content, f.Name))
	}
	return strings.Join(parts, "\n\n")
}

// SortNewestFirst 按上传时间倒序
func SortNewestFirst(infos []model.KnowledgeFileInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].UploadedAt.After(infos[j].UploadedAt)
	})
}

// MemoryStore 内存实现
type MemoryStore struct {
	mu    sync.RWMutex
	files []model.KnowledgeFile
	clock func() time.Time
}

// NewMemoryStore 创建内存资料库
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make([]model.KnowledgeFile, 0),
		clock: time.Now,
	}
}

// Add 新增文件，同名文件被覆盖并移到末尾
func (s *MemoryStore) Add(ctx context.Context, file model.KnowledgeFile) error {
	if strings.TrimSpace(file.Name) == "" {
		return ErrEmptyName
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = s.clock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = append(s.without(file.Name), file)
	return nil
}

// Delete 删除文件
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.without(name)
	if len(remaining) == len(s.files) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.files = remaining
	return nil
}

// without 调用方需持有锁
func (s *MemoryStore) without(name string) []model.KnowledgeFile {
	result := make([]model.KnowledgeFile, 0, len(s.files))
	for _, f := range s.files {
		if f.Name != name {
			result = append(result, f)
		}
	}
	return result
}

// List 文件名与上传时间，最新的在前
func (s *MemoryStore) List(ctx context.Context) ([]model.KnowledgeFileInfo, error) {
	s.mu.RLock()
	infos := make([]model.KnowledgeFileInfo, 0, len(s.files))
	for _, f := range s.files {
		infos = append(infos, model.KnowledgeFileInfo{Name: f.Name, UploadedAt: f.UploadedAt})
	}
	s.mu.RUnlock()

	SortNewestFirst(infos)
	return infos, nil
}

// Clear 清空
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make([]model.KnowledgeFile, 0)
	return nil
}

// Content 拼接后的全部内容
func (s *MemoryStore) Content(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Concatenate(s.files), nil
}
