package exporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// 导出的 Sheet 名称
const (
	SheetTowns      = "镇街统计"
	SheetIndustries = "行业统计"
	SheetTrend      = "月度趋势"
	SheetShortage   = "缺工排行"
	SheetHires      = "招聘排行"
	SheetAnomalies  = "异常企业"
)

// ReportSource 单月分析数据来源（*dashboard.Service 实现）
type ReportSource interface {
	Report(ctx context.Context, f model.Filter) (*dashboard.Result[dashboard.Report], error)
}

// ErrEmptyReport 所选月份没有数据
var ErrEmptyReport = errors.New("所选月份没有可导出的数据")

// Exporter 看板导出器
type Exporter struct {
	source ReportSource
}

// NewExporter 创建导出器
func NewExporter(source ReportSource) *Exporter {
	return &Exporter{source: source}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Filter   model.Filter
	Progress func(ProgressEvent)
}

// Export 导出单月看板；返回的文件由调用方关闭
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*excelize.File, string, error) {
	reportProgress(opts.Progress, 0, "读取数据", "")
	res, err := e.source.Report(ctx, opts.Filter)
	if err != nil {
		return nil, "", err
	}
	if res.Empty {
		return nil, "", ErrEmptyReport
	}
	report := &res.Data

	f := excelize.NewFile()
	w := &sheetWriter{f: f}
	if w.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("创建表头样式失败: %w", err)
	}

	steps := []struct {
		sheet string
		fill  func(*sheetWriter, *dashboard.Report) error
	}{
		{SheetTowns, fillTowns},
		{SheetIndustries, fillIndustries},
		{SheetTrend, fillTrend},
		{SheetShortage, fillShortageRanking},
		{SheetHires, fillHireRanking},
		{SheetAnomalies, fillAnomalies},
	}
	reportProgress(opts.Progress, stepPercent(0, len(steps)), "生成工作表", "")

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return nil, "", err
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", step.sheet); err != nil {
				_ = f.Close()
				return nil, "", err
			}
		} else if _, err := f.NewSheet(step.sheet); err != nil {
			_ = f.Close()
			return nil, "", err
		}
		w.sheet, w.row = step.sheet, 1
		if err := step.fill(w, report); err != nil {
			_ = f.Close()
			return nil, "", fmt.Errorf("写入 %s 失败: %w", step.sheet, err)
		}
		reportProgress(opts.Progress, stepPercent(i+1, len(steps)), "写入工作表", step.sheet)
	}

	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "导出完成", "")
	return f, report.Month, nil
}

// sheetWriter 逐行写入
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	header int
}

func (w *sheetWriter) writeHeader(cols ...interface{}) error {
	if err := w.writeRow(cols...); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), w.row-1)
	first, _ := excelize.CoordinatesToCellName(1, w.row-1)
	if err := w.f.SetCellStyle(w.sheet, first, last, w.header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	return w.f.SetColWidth(w.sheet, "A", lastCol, 14)
}

func (w *sheetWriter) writeRow(cols ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &cols); err != nil {
		return err
	}
	w.row++
	return nil
}

// percent 比率转百分数，保留两位小数
func percent(v float64) float64 {
	return decimal.NewFromFloat(v).Shift(2).Round(2).InexactFloat64()
}

func totalsRow(key string, t model.Totals) []interface{} {
	return []interface{}{
		key, t.CompanyCount, t.TotalEmployees, t.RecruitedNew, t.ResignedTotal, t.NetGrowth,
		t.ShortageCount, percent(t.TurnoverRate), percent(t.ShortageRate),
	}
}

var totalsHeader = []interface{}{"企业数", "在岗人数", "新招", "离职", "净增", "缺工", "离职率(%)", "缺工率(%)"}

func fillTowns(w *sheetWriter, r *dashboard.Report) error {
	if err := w.writeHeader(append([]interface{}{"镇街"}, totalsHeader...)...); err != nil {
		return err
	}
	for _, s := range r.Towns {
		if err := w.writeRow(totalsRow(s.Town, s.Totals)...); err != nil {
			return err
		}
	}
	return w.writeRow(totalsRow("合计", r.Totals)...)
}

func fillIndustries(w *sheetWriter, r *dashboard.Report) error {
	if err := w.writeHeader(append([]interface{}{"行业"}, totalsHeader...)...); err != nil {
		return err
	}
	for _, s := range r.Industries {
		if err := w.writeRow(totalsRow(s.Industry, s.Totals)...); err != nil {
			return err
		}
	}
	return w.writeRow(totalsRow("合计", r.Totals)...)
}

func fillTrend(w *sheetWriter, r *dashboard.Report) error {
	if err := w.writeHeader(append([]interface{}{"月份"}, totalsHeader...)...); err != nil {
		return err
	}
	for _, p := range r.Trend {
		if err := w.writeRow(totalsRow(p.Month, p.Totals)...); err != nil {
			return err
		}
	}
	return nil
}

func fillRanking(w *sheetWriter, entries []model.RankEntry, valueLabel string) error {
	if err := w.writeHeader("排名", "企业名称", "行业", "镇街", valueLabel); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.writeRow(e.Rank, e.CompanyName, e.Industry, e.Town, int(e.Value)); err != nil {
			return err
		}
	}
	return nil
}

func fillShortageRanking(w *sheetWriter, r *dashboard.Report) error {
	return fillRanking(w, r.TopShortage, "缺工人数")
}

func fillHireRanking(w *sheetWriter, r *dashboard.Report) error {
	return fillRanking(w, r.TopHires, "新招人数")
}

func fillAnomalies(w *sheetWriter, r *dashboard.Report) error {
	if err := w.writeHeader("企业名称", "行业", "镇街", "缺工排名", "招聘排名", "缺工人数", "新招人数", "说明"); err != nil {
		return err
	}
	for _, a := range r.Anomalies {
		if err := w.writeRow(a.CompanyName, a.Industry, a.Town, a.ShortageRank, a.HireRank,
			a.ShortageTotal, a.RecruitedNew, a.Reason); err != nil {
			return err
		}
	}
	return nil
}
