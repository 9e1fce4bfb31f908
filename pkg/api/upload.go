package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"VendorRadar/pkg/collector"
	"VendorRadar/pkg/knowledge"
	"VendorRadar/pkg/model"
)

// readUpload 读取上传文件，超过上限时报错
func (h *Handlers) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > h.maxUpload {
		return nil, fmt.Errorf("文件 %s 超过大小限制 %d bytes", fh.Filename, h.maxUpload)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if int64(len(data)) > h.maxUpload {
		return nil, fmt.Errorf("文件 %s 超过大小限制 %d bytes", fh.Filename, h.maxUpload)
	}
	return data, nil
}

// ImportPOData 上传 CSV/XLSX，mode=replace 时整体替换现有数据
func (h *Handlers) ImportPOData(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件: " + err.Error()})
		return
	}
	data, err := h.readUpload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var batch collector.Batch
	if c.Query("mode") == "replace" {
		if batch, err = collector.ParseFile(fh.Filename, data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := h.store.ReplacePOData(ctx, batch.Lines, batch.Logs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "替换订单数据失败: " + err.Error()})
			return
		}
	} else {
		if batch, err = h.importer.Import(ctx, fh.Filename, data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	h.recomputeAfterChange(ctx)
	c.JSON(http.StatusOK, gin.H{
		"lines": len(batch.Lines),
		"logs":  len(batch.Logs),
	})
}

// ListKnowledge 知识库文件列表
func (h *Handlers) ListKnowledge(c *gin.Context) {
	files, err := h.knowledge.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取知识库失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": files})
}

// UploadKnowledge 支持 multipart 多文件或 JSON 单文件
func (h *Handlers) UploadKnowledge(c *gin.Context) {
	ctx := c.Request.Context()

	if c.ContentType() != "multipart/form-data" {
		var req KnowledgeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
			return
		}
		if err := h.knowledge.Add(ctx, model.KnowledgeFile{Name: req.Name, Content: req.Content, UploadedAt: time.Now()}); err != nil {
			h.knowledgeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"uploaded": []string{req.Name}})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "解析上传表单失败: " + err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}

	uploaded := make([]string, 0, len(headers))
	for _, fh := range headers {
		data, err := h.readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		file := model.KnowledgeFile{Name: fh.Filename, Content: string(data), UploadedAt: time.Now()}
		if err := h.knowledge.Add(ctx, file); err != nil {
			h.knowledgeError(c, err)
			return
		}
		uploaded = append(uploaded, fh.Filename)
	}
	c.JSON(http.StatusCreated, gin.H{"uploaded": uploaded})
}

// DeleteKnowledge 删除单个文件
func (h *Handlers) DeleteKnowledge(c *gin.Context) {
	if err := h.knowledge.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.knowledgeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearKnowledge 清空知识库
func (h *Handlers) ClearKnowledge(c *gin.Context) {
	if err := h.knowledge.Clear(c.Request.Context()); err != nil {
		h.knowledgeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) knowledgeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, knowledge.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, knowledge.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "知识库操作失败: " + err.Error()})
	}
}
