package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const metaActiveImport = "active_import_id"

// GetMeta 获取元信息；不存在时 ok=false
func (s *Store) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetMeta 设置元信息
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// ActiveImportID 当前生效的导入；尚未导入时 ok=false
func (s *Store) ActiveImportID(ctx context.Context) (id int64, ok bool, err error) {
	value, ok, err := s.GetMeta(ctx, metaActiveImport)
	if err != nil || !ok {
		return 0, false, err
	}
	id, err = strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad %s %q: %w", metaActiveImport, value, err)
	}
	return id, true, nil
}

// SetActiveImportID 设置当前生效的导入
func (s *Store) SetActiveImportID(ctx context.Context, id int64) error {
	return s.SetMeta(ctx, metaActiveImport, strconv.FormatInt(id, 10))
}
