package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
	"github.com/yudhiahmadi/dasboard-data/internal/parser"
	"github.com/yudhiahmadi/dasboard-data/internal/store"
	"github.com/yudhiahmadi/dasboard-data/internal/telemetry"
)

// Loader 数据集加载器：解析文件并写入 SQLite，同一内容只解析一次
type Loader struct {
	store   *store.Store
	parser  *parser.OrderParser
	metrics *telemetry.Metrics
	logger  *slog.Logger

	path  string
	sheet string
}

// Options 加载器选项
type Options struct {
	Path    string // 数据集文件路径（.csv / .xlsx）
	Sheet   string // xlsx Sheet 名，为空时自动识别
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// NewLoader 创建加载器
func NewLoader(st *store.Store, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		store:   st,
		parser:  parser.NewOrderParser(),
		metrics: opts.Metrics,
		logger:  logger,
		path:    opts.Path,
		sheet:   opts.Sheet,
	}
}

// Path 数据集文件路径
func (l *Loader) Path() string {
	return l.path
}

// Result 一次加载的结果
type Result struct {
	Table     *model.OrderTable `json:"-"`
	Import    model.ImportLog   `json:"import"`
	Cached    bool              `json:"cached"` // 命中已导入的同内容文件
	RowErrors []parser.RowError `json:"rowErrors,omitempty"`
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// Load 加载数据集，返回按审核时间排序的订单表
//
// 文件不可读或缺少必填列时返回错误；解析后没有任何有效行时返回 model.ErrEmptyInput。
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	return l.load(ctx, func(ProgressEvent) {})
}

// Import 执行加载，返回进度通道；最后一个事件为 done（Data 为 *Result）或 error
func (l *Loader) Import(ctx context.Context) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 16)

	go func() {
		defer close(progressChan)
		send := func(evt ProgressEvent) {
			evt.Timestamp = time.Now()
			select {
			case progressChan <- evt:
			case <-ctx.Done():
			}
		}
		res, err := l.load(ctx, send)
		if err != nil {
			send(ProgressEvent{Type: "error", Message: fmt.Sprintf("加载失败: %v", err), Data: err})
			return
		}
		send(ProgressEvent{Type: "done", Message: "加载完成", Data: res})
	}()

	return progressChan
}

func (l *Loader) load(ctx context.Context, progress func(ProgressEvent)) (*Result, error) {
	start := time.Now()
	filename := filepath.Base(l.path)
	progress(ProgressEvent{Type: "start", Message: "开始加载数据集", Data: map[string]string{"filename": filename}})

	info, err := os.Stat(l.path)
	if err != nil {
		l.metrics.ObserveLoad(telemetry.LoadSourceFile, 0, err)
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	hash, err := fileHash(l.path)
	if err != nil {
		l.metrics.ObserveLoad(telemetry.LoadSourceFile, 0, err)
		return nil, err
	}

	// 命中已导入的同内容文件：直接从 SQLite 读回
	cached, err := l.store.FindCompletedImportByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		progress(ProgressEvent{Type: "info", Message: "数据集未变化，从本地库读取", Data: map[string]int64{"importId": cached.ID}})
		res, err := l.loadFromStore(ctx, cached)
		l.metrics.ObserveLoad(telemetry.LoadSourceCache, tableLen(res), err)
		if err != nil {
			return nil, err
		}
		l.logger.Info("dataset loaded from store",
			"file", filename, "import_id", cached.ID, "rows", res.Table.Len(),
			"duration", time.Since(start))
		return res, nil
	}

	res, err := l.importFile(ctx, info.Size(), hash, progress)
	l.metrics.ObserveLoad(telemetry.LoadSourceFile, tableLen(res), err)
	if err != nil {
		return nil, err
	}
	l.logger.Info("dataset imported",
		"file", filename, "sheet", res.Import.SheetName, "import_id", res.Import.ID,
		"rows", res.Import.ImportedRows, "error_rows", res.Import.ErrorRows,
		"duration", time.Since(start))
	return res, nil
}

// importFile 解析文件、批量写入并切换当前导入
func (l *Loader) importFile(ctx context.Context, size int64, hash string, progress func(ProgressEvent)) (*Result, error) {
	log := model.ImportLog{
		Filename:   filepath.Base(l.path),
		FilePath:   l.path,
		FileSize:   size,
		FileHash:   hash,
		SourceType: string(parser.DetectSourceType(l.path)),
	}
	id, err := l.store.CreateImportLog(ctx, log)
	if err != nil {
		return nil, err
	}
	log.ID = id

	fail := func(cause error) (*Result, error) {
		log.Status = model.ImportFailed
		log.ErrorMessage = cause.Error()
		if err := l.store.FinishImportLog(ctx, log); err != nil {
			l.logger.Warn("finish import log failed", "import_id", id, "err", err)
		}
		return nil, cause
	}

	progress(ProgressEvent{Type: "info", Message: "正在解析数据集", Data: map[string]string{"sourceType": log.SourceType}})
	parsed, err := l.parser.ParseFile(l.path, l.sheet)
	if err != nil {
		return fail(fmt.Errorf("parse dataset: %w", err))
	}
	log.SheetName = parsed.SheetName
	log.TotalRows = parsed.TotalRows
	log.ImportedRows = parsed.ImportedRows
	log.ErrorRows = parsed.ErrorRows
	log.ColumnsJSON = store.BuildColumnsJSON(parsed.Columns)

	if parsed.ErrorRows > 0 {
		l.logger.Warn("dataset rows rejected", "error_rows", parsed.ErrorRows, "first", firstError(parsed.Errors))
	}
	if len(parsed.Records) == 0 {
		return fail(fmt.Errorf("dataset %s has no valid rows: %w", log.Filename, model.ErrEmptyInput))
	}

	progress(ProgressEvent{Type: "info", Message: fmt.Sprintf("解析完成，写入 %d 行", parsed.ImportedRows), Data: parsed})
	if err := l.store.BatchInsertOrders(ctx, id, parsed.Records); err != nil {
		return fail(err)
	}

	log.Status = model.ImportCompleted
	if err := l.store.FinishImportLog(ctx, log); err != nil {
		return nil, err
	}
	if err := l.store.SetActiveImportID(ctx, id); err != nil {
		return nil, err
	}
	// 只保留当前数据集
	if err := l.store.DeleteImportsExcept(ctx, id); err != nil {
		l.logger.Warn("cleanup stale imports failed", "err", err)
	}

	return &Result{
		Table:     model.NewOrderTable(parsed.Records),
		Import:    log,
		RowErrors: parsed.Errors,
	}, nil
}

func (l *Loader) loadFromStore(ctx context.Context, log *model.ImportLog) (*Result, error) {
	records, err := l.store.LoadOrders(ctx, log.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("import %d has no rows: %w", log.ID, model.ErrEmptyInput)
	}
	if err := l.store.SetActiveImportID(ctx, log.ID); err != nil {
		return nil, err
	}
	return &Result{
		Table:  model.NewOrderTable(records),
		Import: *log,
		Cached: true,
	}, nil
}

// fileHash 文件内容 SHA-256
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash dataset: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func firstError(errs []parser.RowError) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Error()
}

func tableLen(res *Result) int {
	if res == nil {
		return 0
	}
	return res.Table.Len()
}

// IsUserError 是否为数据集本身的问题（缺列、空数据），而非系统错误
func IsUserError(err error) bool {
	return errors.Is(err, model.ErrMissingColumn) || errors.Is(err, model.ErrEmptyInput)
}
