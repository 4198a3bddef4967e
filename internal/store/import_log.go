package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yudhiahmadi/dasboard-data/internal/model"
)

// CreateImportLog 创建导入日志（状态 processing），返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, log model.ImportLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (filename, file_path, file_size, file_hash, source_type, status)
		VALUES (?, ?, ?, ?, ?, 'processing')
	`, log.Filename, log.FilePath, log.FileSize, log.FileHash, log.SourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(ctx context.Context, log model.ImportLog) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			sheet_name = ?,
			columns_json = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, log.SheetName, orEmptyJSON(log.ColumnsJSON), log.TotalRows, log.ImportedRows, log.ErrorRows,
		string(log.Status), log.ErrorMessage, log.ID)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// FindCompletedImportByHash 查找同一文件内容的已完成导入；不存在时返回 nil, nil
func (s *Store) FindCompletedImportByHash(ctx context.Context, hash string) (*model.ImportLog, error) {
	row := s.db.QueryRowContext(ctx, importLogSelect+`
		WHERE file_hash = ? AND status = 'completed'
		ORDER BY id DESC LIMIT 1
	`, hash)
	log, err := scanImportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return log, err
}

// GetImportLog 按 ID 读取导入日志
func (s *Store) GetImportLog(ctx context.Context, id int64) (*model.ImportLog, error) {
	row := s.db.QueryRowContext(ctx, importLogSelect+" WHERE id = ?", id)
	log, err := scanImportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import log %d not found: %w", id, err)
	}
	return log, err
}

// BuildColumnsJSON 将列名序列化为 JSON（用于追溯表头）
func BuildColumnsJSON(columns []string) string {
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}

const importLogSelect = `
	SELECT id, filename, file_path, file_size, file_hash, source_type, sheet_name, columns_json,
		total_rows, imported_rows, error_rows, status, error_message, created_at, completed_at
	FROM import_logs`

func scanImportLog(row *sql.Row) (*model.ImportLog, error) {
	var (
		log         model.ImportLog
		status      string
		completedAt sql.NullTime
	)
	err := row.Scan(
		&log.ID, &log.Filename, &log.FilePath, &log.FileSize, &log.FileHash,
		&log.SourceType, &log.SheetName, &log.ColumnsJSON,
		&log.TotalRows, &log.ImportedRows, &log.ErrorRows,
		&status, &log.ErrorMessage, &log.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan import log failed: %w", err)
	}
	log.Status = model.ImportStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}
	return &log, nil
}

func orEmptyJSON(s string) string {
	if s == "" {
		return "[]"
	}
	return s
}
