package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yudhiahmadi/dasboard-data/internal/dashboard"
	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// GetDashboard 当前日期范围下的全部分页
// GET /api/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	d, _, err := h.buildCurrent(c.Request.Context())
	if err != nil {
		respondError(c, err, "生成看板失败")
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetTab 单个分页
// GET /api/tabs/:id
func (h *Handler) GetTab(c *gin.Context) {
	snap := h.session.Snapshot()
	if !snap.Loaded() {
		respondError(c, fmt.Errorf("get tab: %w", model.ErrEmptyInput), "")
		return
	}
	tab, err := h.builder.BuildTab(c.Request.Context(), snap.Filtered, dashboard.TabID(c.Param("id")))
	if err != nil {
		respondError(c, err, "生成分页失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"range": rangeBody(snap.Range),
		"tab":   tab,
	})
}
