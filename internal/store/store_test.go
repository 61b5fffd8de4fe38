package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "employment.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleUpsert(name, town, month string, employees, shortage int) ReportUpsert {
	return ReportUpsert{
		Company: model.Company{Name: name, Industry: "制造业", Town: town},
		Report: model.MonthlyReport{
			ReportMonth:    month,
			EmployeesTotal: employees,
			RecruitedNew:   5,
			ResignedTotal:  2,
			ShortageTotal:  shortage,
			ShortageDetail: model.ShortageDetail{General: shortage},
		},
	}
}

func TestUpsertReports_UpsertByCompanyAndMonth(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	n, err := st.UpsertReports(ctx, []ReportUpsert{
		sampleUpsert("甲公司", "城关镇", "2025-05", 100, 3),
		sampleUpsert("甲公司", "城关镇", "2025-06", 110, 4),
		sampleUpsert("乙公司", "新民镇", "2025-06", 50, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 重复导入同一 (企业, 月份) 覆盖而不是新增
	_, err = st.UpsertReports(ctx, []ReportUpsert{sampleUpsert("甲公司", "", "2025-06", 120, 6)})
	require.NoError(t, err)

	rows, err := st.QueryReportRows(ctx, ReportQuery{StartMonth: "2025-06", EndMonth: "2025-06"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "甲公司", rows[0].CompanyName)
	assert.Equal(t, "城关镇", rows[0].Town, "empty town must not overwrite existing value")
	assert.Equal(t, "120", rows[0].EmployeesTotal.String)
	assert.Equal(t, `{"general":6,"technical":0,"management":0}`, rows[0].ShortageDetail.String)
	assert.False(t, rows[1].ShortageDetail.Valid, "zero breakdown stored as NULL")

	months, err := st.ListAvailableMonths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []MonthStat{{Month: "2025-06", CompanyCount: 2}, {Month: "2025-05", CompanyCount: 1}}, months)
}

func TestQueryReportRows_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.UpsertReports(ctx, []ReportUpsert{
		sampleUpsert("甲公司", "城关镇", "2024-12", 90, 1),
		sampleUpsert("甲公司", "城关镇", "2025-01", 100, 1),
		sampleUpsert("乙公司", "新民镇", "2025-01", 50, 0),
	})
	require.NoError(t, err)

	rows, err := st.QueryReportRows(ctx, ReportQuery{Town: "城关镇"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-12-01", rows[0].ReportMonth.String)
	assert.Equal(t, "2025-01-01", rows[1].ReportMonth.String)

	rows, err = st.QueryReportRows(ctx, ReportQuery{EndMonth: "2024-12"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	companies, err := st.ListCompanies(ctx, CompanyQueryOptions{Keyword: "乙"})
	require.NoError(t, err)
	require.Len(t, companies, 1)

	c, err := st.GetCompany(ctx, companies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "新民镇", c.Town)

	_, err = st.GetCompany(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	towns, err := st.ListDimensionValues(ctx, "town")
	require.NoError(t, err)
	assert.Equal(t, []string{"城关镇", "新民镇"}, towns)

	_, err = st.ListDimensionValues(ctx, "name")
	assert.Error(t, err)
}

func TestReplaceMonthReports_ReplacesOnlyGivenMonths(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.UpsertReports(ctx, []ReportUpsert{
		sampleUpsert("甲公司", "城关镇", "2025-05", 100, 3),
		sampleUpsert("甲公司", "城关镇", "2025-06", 110, 4),
		sampleUpsert("乙公司", "城关镇", "2025-06", 90, 1),
	})
	require.NoError(t, err)

	n, err := st.ReplaceMonthReports(ctx, []string{"2025-06"}, []ReportUpsert{
		sampleUpsert("甲公司", "城关镇", "2025-06", 120, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := st.QueryReportRows(ctx, ReportQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-05-01", rows[0].ReportMonth.String)
	assert.Equal(t, "120", rows[1].EmployeesTotal.String)
}

func TestReplaceMonthReports_NoItemsKeepsMonth(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.UpsertReports(ctx, []ReportUpsert{sampleUpsert("甲公司", "城关镇", "2025-06", 110, 4)})
	require.NoError(t, err)

	n, err := st.ReplaceMonthReports(ctx, []string{"2025-06"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := st.QueryReportRows(ctx, ReportQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReplaceMonthReports_RollsBackDeleteOnWriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM monthly_reports").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectPrepare("INSERT INTO monthly_reports").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	st := NewWithDB(db, DriverSQLite)
	_, err = st.ReplaceMonthReports(context.Background(), []string{"2025-06"}, []ReportUpsert{
		sampleUpsert("甲公司", "城关镇", "2025-06", 120, 5),
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportLog_Lifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	latest, err := st.LatestImportLog(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	id, err := st.CreateImportLog(ctx, "6月用工.xlsx", "abc")
	require.NoError(t, err)
	require.NoError(t, st.UpdateImportLog(ctx, id, "2025-06", 10, 9, 1, "success", ""))

	latest, err = st.LatestImportLog(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2025-06", latest.ReportMonth)
	assert.Equal(t, 9, latest.ImportedRows)
	assert.NotEmpty(t, latest.CreatedAt)
}

func TestQueryReportRows_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	st := NewWithDB(db, DriverPostgres)
	mock.ExpectQuery(`SELECT`).
		WithArgs("2025-06-01", "城关镇").
		WillReturnError(errors.New("connection refused"))

	_, err = st.QueryReportRows(context.Background(), ReportQuery{StartMonth: "2025-06", Town: "城关镇"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryReportRows_ScanNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	st := NewWithDB(db, DriverSQLite)
	rows := sqlmock.NewRows([]string{
		"id", "name", "industry", "town", "report_month",
		"employees_total", "recruited_new", "resigned_total", "shortage_total",
		"shortage_detail", "planned_recruitment", "notes",
	}).AddRow(1, "甲公司", "制造业", "城关镇", "2025-06-01", "abc", nil, 3, 4, "{bad", nil, nil)
	mock.ExpectQuery(`FROM monthly_reports`).WillReturnRows(rows)

	out, err := st.QueryReportRows(context.Background(), ReportQuery{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "abc", out[0].EmployeesTotal.String)
	assert.False(t, out[0].RecruitedNew.Valid)
	assert.Equal(t, "3", out[0].ResignedTotal.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	pg := NewWithDB(nil, DriverPostgres)
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := NewWithDB(nil, DriverSQLite)
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.Error(t, err)
}
