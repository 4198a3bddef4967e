package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yudhiahmadi/dasboard-data/internal/exporter"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type exportProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Export 生成当前范围的 Excel 工作簿，返回一次性下载地址
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	d, snap, err := h.buildCurrent(c.Request.Context())
	if err != nil {
		respondError(c, err, "生成看板失败")
		return
	}
	data, err := h.exporter.ExportXLSX(exporter.ExportOptions{Dashboard: d, Table: snap.Filtered})
	if err != nil {
		respondError(c, err, "导出失败")
		return
	}

	token := h.downloads.put(exportDownload{
		data:        data,
		filename:    exporter.FileName(snap.Range, exporter.FormatXLSX),
		contentType: contentTypeXLSX,
	})
	h.logger.Info("export ready", "format", exporter.FormatXLSX, "range", snap.Range.String(), "bytes", len(data))
	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": "/api/export/download/" + token,
		"expiresAt":   time.Now().Add(DownloadTTL).Format(time.RFC3339),
	})
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	d, snap, err := h.buildCurrent(c.Request.Context())
	if err != nil {
		respondError(c, err, "生成看板失败")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event exportProgressEvent) {
		event.Timestamp = time.Now()
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{Type: "start", Message: "开始导出", Data: rangeBody(snap.Range)})

	lastPercent := -1
	data, err := h.exporter.ExportXLSX(exporter.ExportOptions{
		Dashboard: d,
		Table:     snap.Filtered,
		Progress: func(p exporter.ProgressEvent) {
			if p.Percent == lastPercent {
				return
			}
			lastPercent = p.Percent
			send(exportProgressEvent{Type: "progress", Message: p.Stage, Data: map[string]int{"percent": p.Percent}})
		},
	})
	if err != nil {
		send(exportProgressEvent{Type: "error", Message: "导出失败: " + err.Error(), Data: map[string]any{}})
		return
	}

	token := h.downloads.put(exportDownload{
		data:        data,
		filename:    exporter.FileName(snap.Range, exporter.FormatXLSX),
		contentType: contentTypeXLSX,
	})
	send(exportProgressEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": "/api/export/download/" + token,
		},
	})
}

// DownloadExport 下载导出的文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}
	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	c.Header("Content-Disposition", contentDisposition(item.filename))
	c.Data(http.StatusOK, item.contentType, item.data)
}

// ExportPDF 直接下载当前范围的 PDF 报表
// GET /api/export/pdf
func (h *Handler) ExportPDF(c *gin.Context) {
	d, snap, err := h.buildCurrent(c.Request.Context())
	if err != nil {
		respondError(c, err, "生成看板失败")
		return
	}
	data, err := h.exporter.ExportPDF(d, h.title)
	if err != nil {
		respondError(c, err, "导出 PDF 失败")
		return
	}
	c.Header("Content-Disposition", contentDisposition(exporter.FileName(snap.Range, exporter.FormatPDF)))
	c.Data(http.StatusOK, contentTypePDF, data)
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename))
}
