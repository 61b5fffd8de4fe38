package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/analytics"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/loader"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

// 看板视图名称（同时用于错误定位与指标标签）
const (
	ViewOverview   = "overview"
	ViewTowns      = "towns"
	ViewIndustries = "industries"
	ViewTrend      = "trend"
	ViewYoY        = "yoy"
	ViewRanking    = "ranking"
	ViewAnomalies  = "anomalies"
	ViewShortage   = "shortage_structure"
	ViewReport     = "report"
	ViewCompany    = "company_history"
)

// Store 看板依赖的存储能力（*store.Store 实现）
type Store interface {
	loader.Source
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	ListCompanies(ctx context.Context, opts store.CompanyQueryOptions) ([]model.Company, error)
	ListAvailableMonths(ctx context.Context) ([]store.MonthStat, error)
	ListDimensionValues(ctx context.Context, column string) ([]string, error)
}

// Meta 视图元信息
type Meta struct {
	Month     string `json:"month,omitempty"`
	Empty     bool   `json:"empty"`
	Coercions int    `json:"coercions,omitempty"`
}

// Result 带元信息的视图结果
type Result[T any] struct {
	Meta
	Data T `json:"data"`
}

// Overview 概览（KPI 卡片）
type Overview struct {
	Totals      model.Totals            `json:"totals"`
	MonthChange model.MonthChange       `json:"monthChange"`
	Shortage    model.ShortageStructure `json:"shortage"`
	Anomalies   int                     `json:"anomalies"`
}

// Report 单月完整分析数据（智能报告与导出共用）
type Report struct {
	Month       string                  `json:"month"`
	Totals      model.Totals            `json:"totals"`
	Towns       []model.TownStat        `json:"towns"`
	Industries  []model.IndustryStat    `json:"industries"`
	Trend       []model.TrendPoint      `json:"trend"`
	YoY         []model.YoYComparison   `json:"yoy"`
	TopShortage []model.RankEntry       `json:"topShortage"`
	TopHires    []model.RankEntry       `json:"topHires"`
	Anomalies   []model.Anomaly         `json:"anomalies"`
	Shortage    model.ShortageStructure `json:"shortage"`
}

// Dimensions 筛选项
type Dimensions struct {
	Towns      []string `json:"towns"`
	Industries []string `json:"industries"`
}

// Options 服务参数
type Options struct {
	TopN int
}

// Service 看板读取接口：每次调用独立加载快照并执行纯计算
type Service struct {
	store   Store
	loader  *loader.Loader
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
}

// NewService 创建看板服务
func NewService(st Store, ld *loader.Loader, opts Options, logger *zap.Logger, metrics *Metrics) *Service {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   st,
		loader:  ld,
		opts:    opts,
		logger:  logger.Named("dashboard"),
		metrics: metrics,
	}
}

// TopN 默认排行数量
func (s *Service) TopN() int {
	return s.opts.TopN
}

// NormalizeFilter 校验并规范化筛选条件
func NormalizeFilter(f model.Filter) (model.Filter, error) {
	out := model.Filter{
		Industry: strings.TrimSpace(f.Industry),
		Town:     strings.TrimSpace(f.Town),
	}
	for _, m := range []struct {
		src  string
		dst  *string
		name string
	}{
		{f.Month, &out.Month, "month"},
		{f.StartMonth, &out.StartMonth, "startMonth"},
		{f.EndMonth, &out.EndMonth, "endMonth"},
	} {
		if strings.TrimSpace(m.src) == "" {
			continue
		}
		v, ok := model.NormalizeMonth(m.src)
		if !ok {
			return out, apperror.InvalidInput("月份格式错误: " + m.name)
		}
		*m.dst = v
	}
	if out.StartMonth != "" && out.EndMonth != "" && out.StartMonth > out.EndMonth {
		return out, apperror.InvalidInput("起始月份不能晚于结束月份")
	}
	return out, nil
}

// monthScope 单月视图只加载所选月份
func monthScope(f model.Filter) model.Filter {
	if f.Month != "" {
		f.StartMonth, f.EndMonth = f.Month, f.Month
	}
	return f
}

// seriesScope 时间序列视图忽略单月条件
func seriesScope(f model.Filter) model.Filter {
	f.Month = ""
	return f
}

func (s *Service) load(ctx context.Context, view string, f model.Filter) (*loader.Snapshot, error) {
	return s.loader.Load(ctx, view, f)
}

func meta(snap *loader.Snapshot, month string, empty bool) Meta {
	return Meta{Month: month, Empty: empty, Coercions: snap.Coercions.Total()}
}

func monthRecords(records []model.Record, month string) int {
	n := 0
	for _, r := range records {
		if r.Month == month {
			n++
		}
	}
	return n
}

// Overview 概览
func (s *Service) Overview(ctx context.Context, f model.Filter) (*Result[Overview], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewOverview, seriesScope(f))
	if err != nil {
		return nil, err
	}

	month := f.Month
	if month == "" {
		month = analytics.LatestMonth(snap.Records)
	}
	empty := monthRecords(snap.Records, month) == 0

	var points []model.TrendPoint
	for _, p := range analytics.Trend(snap.Records) {
		if p.Month <= month {
			points = append(points, p)
		}
	}
	res := &Result[Overview]{Meta: meta(snap, month, empty)}
	if !empty {
		res.Data = Overview{
			Totals:      analytics.MonthTotals(snap.Records, month),
			MonthChange: analytics.MonthOverMonth(points),
			Shortage:    analytics.ShortageStructure(snap.Records, month),
			Anomalies:   len(analytics.DetectHighTurnover(snap.Records, month, s.opts.TopN)),
		}
	}
	s.metrics.observe(ViewOverview, start, empty)
	return res, nil
}

// Towns 镇街统计
func (s *Service) Towns(ctx context.Context, f model.Filter) (*Result[[]model.TownStat], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewTowns, monthScope(f))
	if err != nil {
		return nil, err
	}
	stats := analytics.TownStats(snap.Records, f.Month)
	res := &Result[[]model.TownStat]{Meta: meta(snap, firstMonth(f.Month, snap), len(stats) == 0), Data: stats}
	s.metrics.observe(ViewTowns, start, res.Empty)
	return res, nil
}

// Industries 行业统计
func (s *Service) Industries(ctx context.Context, f model.Filter) (*Result[[]model.IndustryStat], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewIndustries, monthScope(f))
	if err != nil {
		return nil, err
	}
	stats := analytics.IndustryStats(snap.Records, f.Month)
	res := &Result[[]model.IndustryStat]{Meta: meta(snap, firstMonth(f.Month, snap), len(stats) == 0), Data: stats}
	s.metrics.observe(ViewIndustries, start, res.Empty)
	return res, nil
}

// Trend 月度趋势
func (s *Service) Trend(ctx context.Context, f model.Filter) (*Result[[]model.TrendPoint], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewTrend, seriesScope(f))
	if err != nil {
		return nil, err
	}
	points := analytics.Trend(snap.Records)
	res := &Result[[]model.TrendPoint]{Meta: meta(snap, "", len(points) == 0), Data: points}
	s.metrics.observe(ViewTrend, start, res.Empty)
	return res, nil
}

// YearOverYear 同比
func (s *Service) YearOverYear(ctx context.Context, f model.Filter) (*Result[[]model.YoYComparison], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewYoY, seriesScope(f))
	if err != nil {
		return nil, err
	}
	yoy := analytics.YearOverYear(analytics.Trend(snap.Records))
	res := &Result[[]model.YoYComparison]{Meta: meta(snap, "", snap.Empty()), Data: yoy}
	s.metrics.observe(ViewYoY, start, res.Empty)
	return res, nil
}

// Ranking 企业排名；n <= 0 时使用默认 TopN
func (s *Service) Ranking(ctx context.Context, f model.Filter, metric string, n int) (*Result[[]model.RankEntry], error) {
	start := time.Now()
	m, ok := analytics.ParseMetric(metric)
	if !ok {
		return nil, apperror.InvalidInput("不支持的排名指标: " + metric)
	}
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.opts.TopN
	}
	snap, err := s.load(ctx, ViewRanking, monthScope(f))
	if err != nil {
		return nil, err
	}
	entries := analytics.TopN(analytics.Rank(snap.Records, m, f.Month), n)
	res := &Result[[]model.RankEntry]{Meta: meta(snap, firstMonth(f.Month, snap), len(entries) == 0), Data: entries}
	s.metrics.observe(ViewRanking, start, res.Empty)
	return res, nil
}

// Anomalies 高流动性预警企业；n < 0 时使用默认 TopN，n == 0 返回空
func (s *Service) Anomalies(ctx context.Context, f model.Filter, n int) (*Result[[]model.Anomaly], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = s.opts.TopN
	}
	snap, err := s.load(ctx, ViewAnomalies, monthScope(f))
	if err != nil {
		return nil, err
	}
	flags := analytics.DetectHighTurnover(snap.Records, f.Month, n)
	res := &Result[[]model.Anomaly]{Meta: meta(snap, firstMonth(f.Month, snap), snap.Empty()), Data: flags}
	s.metrics.observe(ViewAnomalies, start, res.Empty)
	return res, nil
}

// ShortageStructure 缺工结构
func (s *Service) ShortageStructure(ctx context.Context, f model.Filter) (*Result[model.ShortageStructure], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewShortage, monthScope(f))
	if err != nil {
		return nil, err
	}
	structure := analytics.ShortageStructure(snap.Records, f.Month)
	empty := monthRecords(snap.Records, structure.Month) == 0
	res := &Result[model.ShortageStructure]{Meta: meta(snap, structure.Month, empty), Data: structure}
	s.metrics.observe(ViewShortage, start, empty)
	return res, nil
}

// Report 单月完整分析（一次加载，全部视图）
func (s *Service) Report(ctx context.Context, f model.Filter) (*Result[Report], error) {
	start := time.Now()
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, ViewReport, seriesScope(f))
	if err != nil {
		return nil, err
	}

	month := f.Month
	if month == "" {
		month = analytics.LatestMonth(snap.Records)
	}
	empty := monthRecords(snap.Records, month) == 0
	res := &Result[Report]{Meta: meta(snap, month, empty)}
	if !empty {
		var history []model.Record
		for _, r := range snap.Records {
			if r.Month <= month {
				history = append(history, r)
			}
		}
		trend := analytics.Trend(history)
		res.Data = Report{
			Month:       month,
			Totals:      analytics.MonthTotals(snap.Records, month),
			Towns:       analytics.TownStats(snap.Records, month),
			Industries:  analytics.IndustryStats(snap.Records, month),
			Trend:       trend,
			YoY:         analytics.YearOverYear(trend),
			TopShortage: analytics.TopN(analytics.Rank(snap.Records, analytics.MetricShortage, month), s.opts.TopN),
			TopHires:    analytics.TopN(analytics.Rank(snap.Records, analytics.MetricRecruited, month), s.opts.TopN),
			Anomalies:   analytics.DetectHighTurnover(snap.Records, month, s.opts.TopN),
			Shortage:    analytics.ShortageStructure(snap.Records, month),
		}
	}
	s.metrics.observe(ViewReport, start, empty)
	return res, nil
}

// CompanyHistory 企业历史月报
func (s *Service) CompanyHistory(ctx context.Context, companyID int64) (*model.CompanyHistory, error) {
	start := time.Now()
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("企业不存在")
		}
		s.logger.Error("get company failed", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, apperror.DataUnavailable(ViewCompany, err)
	}
	snap, err := s.loader.LoadCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	h := analytics.CompanyHistory(*company, snap.Records)
	s.metrics.observe(ViewCompany, start, len(h.Points) == 0)
	return &h, nil
}

// Companies 企业列表（关键字搜索）
func (s *Service) Companies(ctx context.Context, opts store.CompanyQueryOptions) ([]model.Company, error) {
	companies, err := s.store.ListCompanies(ctx, opts)
	if err != nil {
		return nil, apperror.DataUnavailable("companies", err)
	}
	if companies == nil {
		companies = []model.Company{}
	}
	return companies, nil
}

// Months 可用月份
func (s *Service) Months(ctx context.Context) ([]store.MonthStat, error) {
	months, err := s.store.ListAvailableMonths(ctx)
	if err != nil {
		return nil, apperror.DataUnavailable("months", err)
	}
	if months == nil {
		months = []store.MonthStat{}
	}
	return months, nil
}

// Dimensions 镇街/行业筛选项
func (s *Service) Dimensions(ctx context.Context) (*Dimensions, error) {
	towns, err := s.store.ListDimensionValues(ctx, "town")
	if err != nil {
		return nil, apperror.DataUnavailable("dimensions", err)
	}
	industries, err := s.store.ListDimensionValues(ctx, "industry")
	if err != nil {
		return nil, apperror.DataUnavailable("dimensions", err)
	}
	if towns == nil {
		towns = []string{}
	}
	if industries == nil {
		industries = []string{}
	}
	return &Dimensions{Towns: towns, Industries: industries}, nil
}

func firstMonth(month string, snap *loader.Snapshot) string {
	if month != "" {
		return month
	}
	return analytics.LatestMonth(snap.Records)
}
