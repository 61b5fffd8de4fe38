package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ImportLog 导入日志
type ImportLog struct {
	ID           int64  `json:"id"`
	Filename     string `json:"filename"`
	ReportMonth  string `json:"reportMonth"`
	Status       string `json:"status"`
	TotalRows    int    `json:"totalRows"`
	ImportedRows int    `json:"importedRows"`
	ErrorRows    int    `json:"errorRows"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, filename, fileHash string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO import_logs (filename, file_hash, status)
		VALUES (?, ?, 'processing')
		RETURNING id
	`), filename, fileHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(ctx context.Context, id int64, reportMonth string, totalRows, importedRows, errorRows int, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE import_logs SET
			report_month = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`), reportMonth, totalRows, importedRows, errorRows, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// LatestImportLog 最近一次导入记录，没有时返回 nil
func (s *Store) LatestImportLog(ctx context.Context) (*ImportLog, error) {
	var l ImportLog
	var createdAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, report_month, status, total_rows, imported_rows, error_rows, error_message, created_at
		FROM import_logs ORDER BY id DESC LIMIT 1
	`).Scan(&l.ID, &l.Filename, &l.ReportMonth, &l.Status, &l.TotalRows, &l.ImportedRows, &l.ErrorRows, &l.ErrorMessage, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest import log: %w", err)
	}
	l.CreatedAt = createdAt.String
	return &l, nil
}
