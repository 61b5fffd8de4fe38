package loader

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

// 被兜底处理的字段名（同时作为指标标签）
const (
	FieldReportMonth    = "report_month"
	FieldEmployeesTotal = "employees_total"
	FieldRecruitedNew   = "recruited_new"
	FieldResignedTotal  = "resigned_total"
	FieldShortageTotal  = "shortage_total"
	FieldShortageDetail = "shortage_detail"
	FieldPlanned        = "planned_recruitment"
)

// Source 月报数据来源（*store.Store 实现）
type Source interface {
	QueryReportRows(ctx context.Context, q store.ReportQuery) ([]store.RawReportRow, error)
}

// Coercions 各字段被兜底的次数
type Coercions map[string]int

// Total 兜底总次数
func (c Coercions) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Snapshot 一次请求内使用的数据快照
type Snapshot struct {
	Filter    model.Filter
	Records   []model.Record
	Coercions Coercions
	// DroppedRows 月份无法识别而被丢弃的行数
	DroppedRows int
}

// Empty 无匹配数据（合法状态，不是错误）
func (s *Snapshot) Empty() bool {
	return len(s.Records) == 0
}

// Options 加载参数
type Options struct {
	Retries int
	Backoff time.Duration
}

// Loader 原始月报加载器
type Loader struct {
	source  Source
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
}

// New 创建加载器
func New(source Source, opts Options, logger *zap.Logger, metrics *Metrics) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		source:  source,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Load 按条件加载月报快照；dataset 用于错误定位（towns/trend/...）
func (l *Loader) Load(ctx context.Context, dataset string, filter model.Filter) (*Snapshot, error) {
	q := store.ReportQuery{
		StartMonth: filter.StartMonth,
		EndMonth:   filter.EndMonth,
		Industry:   filter.Industry,
		Town:       filter.Town,
	}
	return l.load(ctx, dataset, filter, q)
}

// LoadCompany 加载单个企业的全部月报
func (l *Loader) LoadCompany(ctx context.Context, companyID int64) (*Snapshot, error) {
	return l.load(ctx, "company_history", model.Filter{}, store.ReportQuery{CompanyID: companyID})
}

func (l *Loader) load(ctx context.Context, dataset string, filter model.Filter, q store.ReportQuery) (*Snapshot, error) {
	rows, err := l.fetch(ctx, q)
	if err != nil {
		l.metrics.observeFailure()
		l.logger.Error("load snapshot failed",
			zap.String("dataset", dataset),
			zap.Error(err),
		)
		return nil, apperror.DataUnavailable(dataset, err)
	}

	snap := Normalize(rows)
	snap.Filter = filter

	if n := snap.Coercions.Total(); n > 0 {
		l.metrics.observeCoercions(snap.Coercions)
		l.logger.Warn("malformed fields coerced",
			zap.String("dataset", dataset),
			zap.Int("coercions", n),
			zap.Any("fields", snap.Coercions),
			zap.Int("dropped_rows", snap.DroppedRows),
		)
	}
	return snap, nil
}

// fetch 读取原始行，失败时按配置短暂退避后重试
func (l *Loader) fetch(ctx context.Context, q store.ReportQuery) ([]store.RawReportRow, error) {
	var lastErr error
	for attempt := 0; attempt <= l.opts.Retries; attempt++ {
		if attempt > 0 {
			l.logger.Warn("retry loading reports", zap.Int("attempt", attempt), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.opts.Backoff):
			}
		}
		rows, err := l.source.QueryReportRows(ctx, q)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// Normalize 将原始行规范化为 Record：缺失/非法数值置 0，缺工结构非法整体置零，均计数
// 结果按 (企业 ID, 月份) 升序
func Normalize(rows []store.RawReportRow) *Snapshot {
	snap := &Snapshot{
		Records:   make([]model.Record, 0, len(rows)),
		Coercions: Coercions{},
	}

	for _, row := range rows {
		month, ok := model.NormalizeMonth(row.ReportMonth.String)
		if !row.ReportMonth.Valid || !ok {
			snap.Coercions[FieldReportMonth]++
			snap.DroppedRows++
			continue
		}

		rec := model.Record{
			CompanyID:   row.CompanyID,
			CompanyName: row.CompanyName,
			Industry:    strings.TrimSpace(row.Industry),
			Town:        strings.TrimSpace(row.Town),
			Month:       month,
			Notes:       row.Notes.String,
		}
		rec.EmployeesTotal = coerceCount(row.EmployeesTotal.String, row.EmployeesTotal.Valid, FieldEmployeesTotal, snap.Coercions)
		rec.RecruitedNew = coerceCount(row.RecruitedNew.String, row.RecruitedNew.Valid, FieldRecruitedNew, snap.Coercions)
		rec.ResignedTotal = coerceCount(row.ResignedTotal.String, row.ResignedTotal.Valid, FieldResignedTotal, snap.Coercions)
		rec.ShortageTotal = coerceCount(row.ShortageTotal.String, row.ShortageTotal.Valid, FieldShortageTotal, snap.Coercions)

		// 计划招聘为可选字段：缺失直接为 0，只有非法值才计数
		if row.PlannedRecruitment.Valid {
			rec.PlannedRecruitment = coerceCount(row.PlannedRecruitment.String, true, FieldPlanned, snap.Coercions)
		}

		detail, ok := ParseShortageDetail(row.ShortageDetail.String, rec.ShortageTotal)
		if !ok && row.ShortageDetail.Valid && strings.TrimSpace(row.ShortageDetail.String) != "" {
			snap.Coercions[FieldShortageDetail]++
		}
		rec.ShortageDetail = detail

		snap.Records = append(snap.Records, rec)
	}

	sort.SliceStable(snap.Records, func(i, j int) bool {
		a, b := snap.Records[i], snap.Records[j]
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		return a.Month < b.Month
	})
	return snap
}

// coerceCount 解析非负整数；缺失、非数值或负数按 0 处理并计数
func coerceCount(raw string, valid bool, field string, c Coercions) int {
	if !valid {
		c[field]++
		return 0
	}
	v, ok := parseCount(raw)
	if !ok {
		c[field]++
		return 0
	}
	return v
}

func parseCount(raw string) (int, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	// 表格导入常见 "12.0"
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return 0, false
	}
	return int(f), true
}

type rawShortageDetail struct {
	General    *json.Number `json:"general"`
	Technical  *json.Number `json:"technical"`
	Management *json.Number `json:"management"`
}

// ParseShortageDetail 解析缺工结构 JSON；缺失、格式错误、含负数或合计不等于 shortageTotal 时返回全零结构与 false
func ParseShortageDetail(raw string, shortageTotal int) (model.ShortageDetail, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return model.ShortageDetail{}, false
	}

	var parsed rawShortageDetail
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.ShortageDetail{}, false
	}

	var d model.ShortageDetail
	for _, f := range []struct {
		src *json.Number
		dst *int
	}{
		{parsed.General, &d.General},
		{parsed.Technical, &d.Technical},
		{parsed.Management, &d.Management},
	} {
		if f.src == nil {
			continue
		}
		v, ok := parseCount(f.src.String())
		if !ok {
			return model.ShortageDetail{}, false
		}
		*f.dst = v
	}

	if d.Sum() != shortageTotal {
		return model.ShortageDetail{}, false
	}
	return d, true
}
