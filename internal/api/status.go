package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/session"
)

// ImportInfo 最近一次加载
type ImportInfo struct {
	ID           int64  `json:"id"`
	Filename     string `json:"filename"`
	SheetName    string `json:"sheetName,omitempty"`
	ImportedRows int    `json:"importedRows"`
	ErrorRows    int    `json:"errorRows"`
	Cached       bool   `json:"cached"`
	CompletedAt  string `json:"completedAt,omitempty"`
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	Title     string      `json:"title"`
	Locale    string      `json:"locale"`
	Currency  string      `json:"currency"`
	Loaded    bool        `json:"loaded"`    // 是否已加载数据集
	Rows      int         `json:"rows"`      // 明细行数
	Orders    int         `json:"orders"`    // 去重订单数
	Customers int         `json:"customers"` // 去重客户数
	Bounds    *RangeBody  `json:"bounds,omitempty"`
	Range     *RangeBody  `json:"range,omitempty"`
	LoadedAt  string      `json:"loadedAt,omitempty"`
	Import    *ImportInfo `json:"import,omitempty"`
}

// RangeBody 日期范围（YYYY-MM-DD）
type RangeBody struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func rangeBody(r model.DateRange) *RangeBody {
	return &RangeBody{Start: r.Start.Format(model.DateLayout), End: r.End.Format(model.DateLayout)}
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status(h.session.Snapshot()))
}

func (h *Handler) status(snap session.Snapshot) StatusResponse {
	format := h.builder.Formatter()
	resp := StatusResponse{
		Title:    h.title,
		Locale:   format.Locale(),
		Currency: format.CurrencyCode(),
		Loaded:   snap.Loaded(),
	}
	if !resp.Loaded {
		return resp
	}
	resp.Rows = snap.Base.Len()
	resp.Orders = snap.Base.DistinctOrders()
	resp.Customers = snap.Base.DistinctCustomers()
	resp.Bounds = rangeBody(snap.Bounds)
	resp.Range = rangeBody(snap.Range)
	resp.LoadedAt = snap.LoadedAt.Format("2006-01-02 15:04:05")

	if res := h.currentImport(); res != nil {
		info := &ImportInfo{
			ID:           res.Import.ID,
			Filename:     res.Import.Filename,
			SheetName:    res.Import.SheetName,
			ImportedRows: res.Import.ImportedRows,
			ErrorRows:    res.Import.ErrorRows,
			Cached:       res.Cached,
		}
		if res.Import.CompletedAt != nil {
			info.CompletedAt = res.Import.CompletedAt.Format("2006-01-02 15:04:05")
		}
		resp.Import = info
	}
	return resp
}

// RangeResponse 可选范围与当前范围
type RangeResponse struct {
	Bounds *RangeBody `json:"bounds"`
	Range  *RangeBody `json:"range"`
}

// GetRange 获取日期范围
// GET /api/range
func (h *Handler) GetRange(c *gin.Context) {
	snap := h.session.Snapshot()
	if !snap.Loaded() {
		c.JSON(http.StatusConflict, gin.H{"error": "尚未加载数据集"})
		return
	}
	c.JSON(http.StatusOK, RangeResponse{Bounds: rangeBody(snap.Bounds), Range: rangeBody(snap.Range)})
}

// SelectRange 选择日期范围，返回新范围下的全部分页
// POST /api/range/select
func (h *Handler) SelectRange(c *gin.Context) {
	var req RangeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	snap := h.session.Snapshot()
	r, err := model.ParseDateRange(req.Start, req.End, snap.Bounds.Start.Location())
	if err != nil {
		respondError(c, err, "解析日期失败")
		return
	}
	if err := h.session.Select(r); err != nil {
		respondError(c, err, "选择日期范围失败")
		return
	}

	d, snap, err := h.buildCurrent(c.Request.Context())
	if err != nil {
		respondError(c, err, "生成看板失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"range":     rangeBody(snap.Range),
		"dashboard": d,
	})
}
