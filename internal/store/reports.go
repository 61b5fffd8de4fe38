package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// ReportUpsert 一条待写入的企业月报（企业属性 + 月报数值）
type ReportUpsert struct {
	Company model.Company
	Report  model.MonthlyReport
}

// UpsertReports 在一个事务内按 (企业, 月份) 写入/覆盖月报，返回写入条数
func (s *Store) UpsertReports(ctx context.Context, items []ReportUpsert) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	written, err := s.writeReports(ctx, tx, items)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return written, nil
}

// ReplaceMonthReports 在同一事务内清空 months 的旧月报并写入 items；任一步失败整体回滚
func (s *Store) ReplaceMonthReports(ctx context.Context, months []string, items []ReportUpsert) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, month := range months {
		if err := s.deleteMonth(ctx, tx, month); err != nil {
			return 0, err
		}
	}
	written, err := s.writeReports(ctx, tx, items)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return written, nil
}

func (s *Store) writeReports(ctx context.Context, tx *sql.Tx, items []ReportUpsert) (int, error) {
	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO monthly_reports (
			company_id, report_month,
			employees_total, recruited_new, resigned_total, shortage_total,
			shortage_detail, planned_recruitment, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, report_month) DO UPDATE SET
			employees_total = excluded.employees_total,
			recruited_new = excluded.recruited_new,
			resigned_total = excluded.resigned_total,
			shortage_total = excluded.shortage_total,
			shortage_detail = excluded.shortage_detail,
			planned_recruitment = excluded.planned_recruitment,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
	`))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	companyIDs := make(map[string]int64)
	written := 0
	for i := range items {
		it := &items[i]
		name := model.NormalizeName(it.Company.Name)
		companyID, ok := companyIDs[name]
		if !ok {
			companyID, err = s.upsertCompany(ctx, tx, &it.Company)
			if err != nil {
				return 0, err
			}
			companyIDs[name] = companyID
		}

		r := &it.Report
		_, err := stmt.ExecContext(ctx,
			companyID, model.MonthStart(r.ReportMonth),
			r.EmployeesTotal, r.RecruitedNew, r.ResignedTotal, r.ShortageTotal,
			encodeShortageDetail(r.ShortageDetail), r.PlannedRecruitment, r.Notes,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert report %s/%s: %w", name, r.ReportMonth, err)
		}
		written++
	}
	return written, nil
}

func encodeShortageDetail(d model.ShortageDetail) any {
	if d.IsZero() {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	return string(b)
}

// ReportQuery 月报查询条件，月份为 YYYY-MM，均为闭区间
type ReportQuery struct {
	StartMonth string
	EndMonth   string
	Industry   string
	Town       string
	CompanyID  int64
}

// RawReportRow 未经校验的联表行；数值列按字符串读取，由 loader 负责解析与兜底
type RawReportRow struct {
	CompanyID          int64
	CompanyName        string
	Industry           string
	Town               string
	ReportMonth        sql.NullString
	EmployeesTotal     sql.NullString
	RecruitedNew       sql.NullString
	ResignedTotal      sql.NullString
	ShortageTotal      sql.NullString
	ShortageDetail     sql.NullString
	PlannedRecruitment sql.NullString
	Notes              sql.NullString
}

// QueryReportRows 查询月报联表行，按 (企业, 月份) 升序
func (s *Store) QueryReportRows(ctx context.Context, q ReportQuery) ([]RawReportRow, error) {
	query := `
		SELECT
			c.id, c.name, c.industry, c.town,
			r.report_month,
			r.employees_total, r.recruited_new, r.resigned_total, r.shortage_total,
			r.shortage_detail, r.planned_recruitment, r.notes
		FROM monthly_reports r
		JOIN companies c ON c.id = r.company_id
		WHERE 1=1`
	args := []any{}

	if q.StartMonth != "" {
		query += " AND r.report_month >= ?"
		args = append(args, model.MonthStart(q.StartMonth))
	}
	if q.EndMonth != "" {
		// 上界取下月首日（闭区间到 EndMonth 月末）
		query += " AND r.report_month < ?"
		args = append(args, model.MonthStart(model.NextMonth(q.EndMonth)))
	}
	if q.Industry != "" {
		query += " AND c.industry = ?"
		args = append(args, q.Industry)
	}
	if q.Town != "" {
		query += " AND c.town = ?"
		args = append(args, q.Town)
	}
	if q.CompanyID > 0 {
		query += " AND c.id = ?"
		args = append(args, q.CompanyID)
	}

	query += " ORDER BY c.id, r.report_month"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []RawReportRow
	for rows.Next() {
		var r RawReportRow
		if err := rows.Scan(
			&r.CompanyID, &r.CompanyName, &r.Industry, &r.Town,
			&r.ReportMonth,
			&r.EmployeesTotal, &r.RecruitedNew, &r.ResignedTotal, &r.ShortageTotal,
			&r.ShortageDetail, &r.PlannedRecruitment, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// deleteMonth 删除指定月份的全部月报
func (s *Store) deleteMonth(ctx context.Context, q querier, month string) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		DELETE FROM monthly_reports WHERE report_month >= ? AND report_month < ?
	`), model.MonthStart(month), model.MonthStart(model.NextMonth(month)))
	if err != nil {
		return fmt.Errorf("failed to delete reports of %s: %w", month, err)
	}
	return nil
}
