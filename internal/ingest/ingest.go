package ingest

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

// Record 待写入的规范化月报记录
type Record struct {
	CompanyName        string                `json:"company_name" validate:"required,max=200"`
	Month              string                `json:"month" validate:"required,month"`
	Industry           string                `json:"industry" validate:"max=100"`
	Town               string                `json:"town" validate:"max=100"`
	ContactPerson      string                `json:"contact_person" validate:"max=50"`
	ContactPhone       string                `json:"contact_phone" validate:"max=50"`
	EmployeesTotal     int                   `json:"employees_total" validate:"gte=0"`
	RecruitedNew       int                   `json:"recruited_new" validate:"gte=0"`
	ResignedTotal      int                   `json:"resigned_total" validate:"gte=0"`
	ShortageTotal      int                   `json:"shortage_total" validate:"gte=0"`
	ShortageBreakdown  *model.ShortageDetail `json:"shortage_breakdown,omitempty"`
	PlannedRecruitment *int                  `json:"planned_recruitment,omitempty" validate:"omitempty,gte=0"`
	Notes              string                `json:"notes,omitempty" validate:"max=1000"`
}

// RowError 单条记录的校验错误
type RowError struct {
	Index   int      `json:"index"`
	Company string   `json:"company"`
	Errors  []string `json:"errors"`
}

// Result 写入结果
type Result struct {
	Imported int        `json:"imported"`
	Rejected []RowError `json:"rejected"`
	Warnings []string   `json:"warnings"`
	Months   []string   `json:"months"`
	// Replaced 本次在同一事务内清空过旧数据的月份
	Replaced []string `json:"replaced,omitempty"`
}

// Writer 月报写入能力（*store.Store 实现）
type Writer interface {
	UpsertReports(ctx context.Context, items []store.ReportUpsert) (int, error)
	ReplaceMonthReports(ctx context.Context, months []string, items []store.ReportUpsert) (int, error)
}

// Ingester 校验并按 (企业, 月份) 写入月报
type Ingester struct {
	writer   Writer
	validate *validator.Validate
	logger   *zap.Logger
}

// NewIngester 创建写入器
func NewIngester(writer Writer, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		writer:   writer,
		validate: newValidator(),
		logger:   logger.Named("ingest"),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		_, ok := model.NormalizeMonth(fl.Field().String())
		return ok
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 校验单条记录，返回可读的错误信息
func (i *Ingester) Validate(r Record) []string {
	var msgs []string
	if err := i.validate.Struct(r); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range errs {
				msgs = append(msgs, formatFieldError(e))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
	}
	// 仅含空白的名称可以通过 required
	if r.CompanyName != "" {
		for _, e := range (&model.Company{Name: r.CompanyName, Town: r.Town}).Validate() {
			if e.Severity == "error" {
				msgs = append(msgs, e.Message)
			}
		}
	}
	return msgs
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s 不能为空", e.Field())
	case "gte":
		return fmt.Sprintf("%s 不能小于 %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s 长度不能超过 %s", e.Field(), e.Param())
	case "month":
		return fmt.Sprintf("%s 月份格式无法识别: %v", e.Field(), e.Value())
	default:
		return fmt.Sprintf("%s 校验失败 (%s)", e.Field(), e.Tag())
	}
}

// ToUpsert 转换为存储写入项；缺工结构合计不符时整体置零并返回提示
func ToUpsert(r Record) (store.ReportUpsert, string) {
	month, _ := model.NormalizeMonth(r.Month)
	item := store.ReportUpsert{
		Company: model.Company{
			Name:          model.NormalizeName(r.CompanyName),
			Industry:      strings.TrimSpace(r.Industry),
			Town:          strings.TrimSpace(r.Town),
			ContactPerson: strings.TrimSpace(r.ContactPerson),
			ContactPhone:  strings.TrimSpace(r.ContactPhone),
		},
		Report: model.MonthlyReport{
			ReportMonth:    month,
			EmployeesTotal: r.EmployeesTotal,
			RecruitedNew:   r.RecruitedNew,
			ResignedTotal:  r.ResignedTotal,
			ShortageTotal:  r.ShortageTotal,
			Notes:          strings.TrimSpace(r.Notes),
		},
	}
	if r.PlannedRecruitment != nil {
		item.Report.PlannedRecruitment = *r.PlannedRecruitment
	}

	var warning string
	if d := r.ShortageBreakdown; d != nil && !d.IsZero() {
		if d.Sum() == r.ShortageTotal && d.General >= 0 && d.Technical >= 0 && d.Management >= 0 {
			item.Report.ShortageDetail = *d
		} else {
			warning = fmt.Sprintf("%s %s 缺工结构合计(%d)与缺工总数(%d)不符，已置零",
				item.Company.Name, month, d.Sum(), r.ShortageTotal)
		}
	}
	return item, warning
}

// Ingest 校验全部记录，合法记录在一个事务内写入；非法记录逐条返回
func (i *Ingester) Ingest(ctx context.Context, records []Record) (*Result, error) {
	return i.write(ctx, records, false, nil)
}

// Replace 与 Ingest 相同，但在同一事务内先清空合法记录涉及的月份。
// done 中的月份已在本批次清空过，只覆盖写入；没有合法记录时不删除任何数据
func (i *Ingester) Replace(ctx context.Context, records []Record, done map[string]bool) (*Result, error) {
	return i.write(ctx, records, true, done)
}

func (i *Ingester) write(ctx context.Context, records []Record, replace bool, done map[string]bool) (*Result, error) {
	res := &Result{Rejected: []RowError{}, Warnings: []string{}, Months: []string{}}
	items := make([]store.ReportUpsert, 0, len(records))
	months := make(map[string]struct{})

	for idx, r := range records {
		if errs := i.Validate(r); len(errs) > 0 {
			res.Rejected = append(res.Rejected, RowError{Index: idx, Company: r.CompanyName, Errors: errs})
			continue
		}
		item, warning := ToUpsert(r)
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
		if _, ok := months[item.Report.ReportMonth]; !ok {
			months[item.Report.ReportMonth] = struct{}{}
			res.Months = append(res.Months, item.Report.ReportMonth)
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		var n int
		var err error
		if replace {
			for _, m := range res.Months {
				if !done[m] {
					res.Replaced = append(res.Replaced, m)
				}
			}
			n, err = i.writer.ReplaceMonthReports(ctx, res.Replaced, items)
		} else {
			n, err = i.writer.UpsertReports(ctx, items)
		}
		if err != nil {
			i.logger.Error("upsert reports failed", zap.Int("records", len(items)), zap.Error(err))
			return nil, err
		}
		res.Imported = n
	}

	i.logger.Info("records ingested",
		zap.Int("imported", res.Imported),
		zap.Int("rejected", len(res.Rejected)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Strings("months", res.Months),
	)
	return res, nil
}
