package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yudhiahmadi/dasboard-data/internal/importer"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/store"
)

type monthsResponse struct {
	ImportID int64             `json:"importId"`
	Items    []store.MonthStat `json:"items"`
}

// ListMonths 当前数据集中有数据的月份
// GET /api/months
func (h *Handler) ListMonths(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, monthsResponse{Items: []store.MonthStat{}})
		return
	}
	ctx := c.Request.Context()
	id, ok, err := h.store.ActiveImportID(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取当前导入失败: " + err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, monthsResponse{Items: []store.MonthStat{}})
		return
	}
	items, err := h.store.ListMonths(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取月份失败: " + err.Error()})
		return
	}
	if items == nil {
		items = []store.MonthStat{}
	}
	c.JSON(http.StatusOK, monthsResponse{ImportID: id, Items: items})
}

// ReloadDataset 重新加载数据集，日期范围重置为完整范围
// POST /api/dataset/reload
func (h *Handler) ReloadDataset(c *gin.Context) {
	res, err := h.Reload(c.Request.Context())
	if err != nil {
		h.logger.Warn("dataset reload failed", "err", err)
		respondReloadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    h.status(h.session.Snapshot()),
		"rowErrors": len(res.RowErrors),
	})
}

func respondReloadError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrEmptyInput) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "数据集没有有效行"})
		return
	}
	respondError(c, err, "加载数据集失败")
}

// ReloadDatasetStream 重新加载数据集（SSE 进度）
// POST /api/dataset/reload/stream
func (h *Handler) ReloadDatasetStream(c *gin.Context) {
	if h.loader == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "未配置数据集"})
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

	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	for event := range h.loader.Import(c.Request.Context()) {
		switch data := event.Data.(type) {
		case *importer.Result:
			h.apply(data)
			event.Data = h.status(h.session.Snapshot())
		case error:
			event.Data = map[string]string{"error": data.Error()}
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}

		b, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
}
