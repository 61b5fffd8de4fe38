package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// upsertCompany 按企业名称写入/更新企业，返回企业 ID
// 空字符串不覆盖已有属性
func (s *Store) upsertCompany(ctx context.Context, q querier, c *model.Company) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO companies (name, industry, town, contact_person, contact_phone)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			industry = CASE WHEN excluded.industry <> '' THEN excluded.industry ELSE companies.industry END,
			town = CASE WHEN excluded.town <> '' THEN excluded.town ELSE companies.town END,
			contact_person = CASE WHEN excluded.contact_person <> '' THEN excluded.contact_person ELSE companies.contact_person END,
			contact_phone = CASE WHEN excluded.contact_phone <> '' THEN excluded.contact_phone ELSE companies.contact_phone END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`), model.NormalizeName(c.Name), strings.TrimSpace(c.Industry), strings.TrimSpace(c.Town),
		strings.TrimSpace(c.ContactPerson), strings.TrimSpace(c.ContactPhone)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert company %q: %w", c.Name, err)
	}
	return id, nil
}

// UpsertCompany 写入/更新单个企业
func (s *Store) UpsertCompany(ctx context.Context, c *model.Company) (int64, error) {
	return s.upsertCompany(ctx, s.db, c)
}

// CompanyQueryOptions 企业查询选项
type CompanyQueryOptions struct {
	Keyword  string
	Industry string
	Town     string
	Limit    int
	Offset   int
}

// ListCompanies 查询企业列表（按名称排序）
func (s *Store) ListCompanies(ctx context.Context, opts CompanyQueryOptions) ([]model.Company, error) {
	query := "SELECT id, name, industry, town, contact_person, contact_phone FROM companies WHERE 1=1"
	args := []any{}

	if opts.Keyword != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+opts.Keyword+"%")
	}
	if opts.Industry != "" {
		query += " AND industry = ?"
		args = append(args, opts.Industry)
	}
	if opts.Town != "" {
		query += " AND town = ?"
		args = append(args, opts.Town)
	}

	query += " ORDER BY name, id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.Town, &c.ContactPerson, &c.ContactPhone); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies failed: %w", err)
	}
	return out, nil
}

// GetCompany 根据 ID 获取企业
func (s *Store) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, industry, town, contact_person, contact_phone
		FROM companies WHERE id = ?
	`), id).Scan(&c.ID, &c.Name, &c.Industry, &c.Town, &c.ContactPerson, &c.ContactPhone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// ListDimensionValues 列出镇街或行业的全部取值（用于筛选下拉）
func (s *Store) ListDimensionValues(ctx context.Context, column string) ([]string, error) {
	if column != "town" && column != "industry" {
		return nil, fmt.Errorf("unsupported dimension: %s", column)
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT %s FROM companies WHERE %s <> '' ORDER BY %s", column, column, column))
	if err != nil {
		return nil, fmt.Errorf("query %s values failed: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s value failed: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
