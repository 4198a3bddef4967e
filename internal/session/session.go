// Package session 当前会话状态：基础订单表与选中的日期范围
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// Snapshot 某一时刻的只读会话视图
type Snapshot struct {
	Base     *model.OrderTable
	Range    model.DateRange
	Bounds   model.DateRange
	Filtered *model.OrderTable
	LoadedAt time.Time
}

// Loaded 是否已有数据集
func (s Snapshot) Loaded() bool {
	return s.Base.Len() > 0
}

// Session 会话（并发安全）
//
// 基础表只在 Reload 时整体替换，Select 只改日期范围；
// 过滤结果按范围缓存，范围或基础表变化后失效。
type Session struct {
	mu       sync.RWMutex
	base     *model.OrderTable
	rng      model.DateRange
	filtered *model.OrderTable
	loadedAt time.Time
}

// New 创建会话，日期范围默认为数据集的完整范围
func New(table *model.OrderTable) *Session {
	s := &Session{}
	s.reset(table)
	return s
}

// Select 选择日期范围
func (s *Session) Select(r model.DateRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base.Len() == 0 {
		return fmt.Errorf("select range: %w", model.ErrEmptyInput)
	}
	if err := r.Validate(s.base.Bounds()); err != nil {
		return err
	}
	r = model.DateRange{Start: model.DateOf(r.Start), End: model.DateOf(r.End)}
	if sameRange(r, s.rng) {
		return nil
	}
	s.rng = r
	s.filtered = nil
	return nil
}

// Snapshot 当前会话视图；过滤表在首次需要时计算
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Base:     s.base,
		Range:    s.rng,
		Bounds:   s.base.Bounds(),
		Filtered: s.filtered,
		LoadedAt: s.loadedAt,
	}
	s.mu.RUnlock()
	if snap.Filtered != nil {
		return snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 等待写锁期间可能已被 Reload/Select 替换
	if s.base != snap.Base || !sameRange(s.rng, snap.Range) {
		snap.Base, snap.Range, snap.Bounds, snap.LoadedAt = s.base, s.rng, s.base.Bounds(), s.loadedAt
	}
	if s.filtered == nil {
		s.filtered = s.base.Filter(s.rng)
	}
	snap.Filtered = s.filtered
	return snap
}

// Reload 替换基础表并把日期范围重置为完整范围
func (s *Session) Reload(table *model.OrderTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(table)
}

func (s *Session) reset(table *model.OrderTable) {
	if table == nil {
		table = model.NewOrderTable(nil)
	}
	s.base = table
	s.rng = table.Bounds()
	s.filtered = nil
	s.loadedAt = time.Now()
}

func sameRange(a, b model.DateRange) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}
