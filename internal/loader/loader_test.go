package loader

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

type fakeSource struct {
	rows    []store.RawReportRow
	errs    []error
	calls   int
	lastReq store.ReportQuery
}

func (f *fakeSource) QueryReportRows(_ context.Context, q store.ReportQuery) ([]store.RawReportRow, error) {
	f.lastReq = q
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.rows, nil
}

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func rawRow(id int64, name, month, employees, shortage, detail string) store.RawReportRow {
	return store.RawReportRow{
		CompanyID:      id,
		CompanyName:    name,
		Industry:       "制造业",
		Town:           "城关镇",
		ReportMonth:    ns(month),
		EmployeesTotal: ns(employees),
		RecruitedNew:   ns("4"),
		ResignedTotal:  ns("2"),
		ShortageTotal:  ns(shortage),
		ShortageDetail: ns(detail),
	}
}

func TestNormalize_CoercesMalformedFields(t *testing.T) {
	rows := []store.RawReportRow{
		rawRow(2, "乙", "2025-06-01", "abc", "3", `{"general":1,"technical":1,"management":1}`),
		rawRow(1, "甲", "2025-06-01T00:00:00Z", "100", "5", `{"general":1,"technical":1}`), // 合计不符
		rawRow(1, "甲", "2025-05-01", "-3", "0", `{bad json`),
		rawRow(3, "丙", "not-a-month", "10", "0", ""),
	}
	rows[0].RecruitedNew = sql.NullString{}
	rows[1].PlannedRecruitment = ns("12.0")

	snap := Normalize(rows)

	require.Len(t, snap.Records, 3)
	assert.Equal(t, 1, snap.DroppedRows)

	// 按 (企业, 月份) 升序
	assert.Equal(t, int64(1), snap.Records[0].CompanyID)
	assert.Equal(t, "2025-05", snap.Records[0].Month)
	assert.Equal(t, "2025-06", snap.Records[1].Month)
	assert.Equal(t, int64(2), snap.Records[2].CompanyID)

	assert.Equal(t, 0, snap.Records[0].EmployeesTotal, "negative coerced to zero")
	assert.Equal(t, 12, snap.Records[1].PlannedRecruitment)
	assert.True(t, snap.Records[1].ShortageDetail.IsZero(), "inconsistent breakdown replaced wholesale")
	assert.Equal(t, 0, snap.Records[2].EmployeesTotal)
	assert.Equal(t, 0, snap.Records[2].RecruitedNew)
	assert.Equal(t, model.ShortageDetail{General: 1, Technical: 1, Management: 1}, snap.Records[2].ShortageDetail)

	assert.Equal(t, Coercions{
		FieldReportMonth:    1,
		FieldEmployeesTotal: 2,
		FieldRecruitedNew:   1,
		FieldShortageDetail: 2,
	}, snap.Coercions)
	assert.Equal(t, 6, snap.Coercions.Total())
}

func TestNormalize_ShortageDetailSumsOrZero(t *testing.T) {
	details := []string{
		`{"general":2,"technical":3,"management":1}`,
		`{"general":"2","technical":3,"management":1}`,
		`{"general":2,"technical":3}`,
		`{"general":-1,"technical":7,"management":0}`,
		`[]`,
		`null`,
		``,
	}
	for _, d := range details {
		snap := Normalize([]store.RawReportRow{rawRow(1, "甲", "2025-06", "10", "6", d)})
		require.Len(t, snap.Records, 1)
		rec := snap.Records[0]
		sum := rec.ShortageDetail.Sum()
		assert.True(t, sum == rec.ShortageTotal || rec.ShortageDetail.IsZero(), "detail %s", d)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{" 1,200 ", 1200, true},
		{"12.0", 12, true},
		{"-3", 0, false},
		{"-3.0", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseCount(c.raw)
		assert.Equal(t, c.want, got, "raw %q", c.raw)
		assert.Equal(t, c.ok, ok, "raw %q", c.raw)
	}
}

func TestParseShortageDetail(t *testing.T) {
	d, ok := ParseShortageDetail(`{"general":4,"technical":1,"management":0}`, 5)
	assert.True(t, ok)
	assert.Equal(t, model.ShortageDetail{General: 4, Technical: 1}, d)

	d, ok = ParseShortageDetail(`{"general":4}`, 5)
	assert.False(t, ok)
	assert.True(t, d.IsZero())

	_, ok = ParseShortageDetail(`{"general":"x"}`, 0)
	assert.False(t, ok)

	d, ok = ParseShortageDetail(`{}`, 0)
	assert.True(t, ok)
	assert.True(t, d.IsZero())
}

func TestLoad_PassesFilterAndCountsMetrics(t *testing.T) {
	src := &fakeSource{rows: []store.RawReportRow{
		rawRow(1, "甲", "2025-06-01", "x", "0", ""),
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	l := New(src, Options{}, zap.NewNop(), metrics)

	filter := model.Filter{StartMonth: "2025-01", EndMonth: "2025-06", Town: "城关镇"}
	snap, err := l.Load(context.Background(), "towns", filter)
	require.NoError(t, err)

	assert.Equal(t, store.ReportQuery{StartMonth: "2025-01", EndMonth: "2025-06", Town: "城关镇"}, src.lastReq)
	assert.Equal(t, filter, snap.Filter)
	assert.False(t, snap.Empty())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.coercions.WithLabelValues(FieldEmployeesTotal)))
}

func TestLoad_EmptyResultIsNotError(t *testing.T) {
	l := New(&fakeSource{}, Options{}, nil, nil)

	snap, err := l.Load(context.Background(), "trend", model.Filter{})
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Zero(t, snap.Coercions.Total())
}

func TestLoad_RetriesOnceThenSucceeds(t *testing.T) {
	src := &fakeSource{
		errs: []error{errors.New("database is locked")},
		rows: []store.RawReportRow{rawRow(1, "甲", "2025-06", "10", "0", "")},
	}
	l := New(src, Options{Retries: 1, Backoff: time.Millisecond}, zap.NewNop(), nil)

	snap, err := l.Load(context.Background(), "towns", model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Len(t, snap.Records, 1)
}

func TestLoad_StoreUnreachableIsDataUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	src := &fakeSource{errs: []error{cause, cause}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	l := New(src, Options{Retries: 1, Backoff: time.Millisecond}, zap.NewNop(), metrics)

	_, err := l.Load(context.Background(), "industries", model.Filter{})
	require.Error(t, err)
	assert.True(t, apperror.IsDataUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "industries", apperror.From(err).Dataset)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.loadFails))
}

func TestLoad_CancelledContextStopsRetry(t *testing.T) {
	src := &fakeSource{errs: []error{errors.New("timeout"), errors.New("timeout")}}
	l := New(src, Options{Retries: 3, Backoff: time.Hour}, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, "trend", model.Filter{})
	require.Error(t, err)
	assert.True(t, apperror.IsDataUnavailable(err))
	assert.Equal(t, 1, src.calls)
}

func TestLoadCompany(t *testing.T) {
	src := &fakeSource{}
	l := New(src, Options{}, zap.NewNop(), nil)

	_, err := l.LoadCompany(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), src.lastReq.CompanyID)
}
