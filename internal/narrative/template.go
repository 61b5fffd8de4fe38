package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TemplateGenerator 未配置生成服务时使用的固定模板摘要
type TemplateGenerator struct {
	MaxChars int
}

// Generate 按句输出模板摘要
func (g *TemplateGenerator) Generate(ctx context.Context, in *Context) (<-chan Event, error) {
	maxChars := g.MaxChars
	if maxChars <= 0 {
		maxChars = 500
	}
	sentences := Summarize(in)
	streamID := uuid.NewString()

	ch := make(chan Event)
	go func() {
		defer close(ch)
		b := &budget{remaining: maxChars}
		for _, s := range sentences {
			text, exhausted := b.take(s)
			if text != "" && !emit(ctx, ch, Event{Type: EventDelta, StreamID: streamID, Text: text}) {
				return
			}
			if exhausted {
				break
			}
		}
		emit(ctx, ch, Event{Type: EventDone, StreamID: streamID})
	}()
	return ch, nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// Summarize 由上下文生成摘要句子（不做任何推算，只复述已有数值）
func Summarize(in *Context) []string {
	t := in.Aggregates.Totals
	out := []string{
		fmt.Sprintf("%s共有%d家企业填报，在岗职工%d人，当月新招%d人、离职%d人，净增%d人，离职率%s。",
			in.Month, t.CompanyCount, t.TotalEmployees, t.RecruitedNew, t.ResignedTotal, t.NetGrowth, percent(t.TurnoverRate)),
		fmt.Sprintf("缺工总数%d人，缺工率%s。", t.ShortageCount, percent(t.ShortageRate)),
	}

	if yoy := in.Aggregates.YoY; yoy != nil && yoy.Available && yoy.EmployeesDelta != nil {
		out = append(out, fmt.Sprintf("与%s相比，在岗职工变化%+d人。", yoy.PriorMonth, *yoy.EmployeesDelta))
	}

	if d := in.Aggregates.Shortage.Detail; !d.IsZero() {
		out = append(out, fmt.Sprintf("缺工结构中普工%d人、技术工%d人、管理岗%d人。", d.General, d.Technical, d.Management))
	}

	if len(in.Aggregates.TopTowns) > 0 {
		top := in.Aggregates.TopTowns[0]
		out = append(out, fmt.Sprintf("在岗规模最大的镇街为%s（%d人）。", top.Town, top.TotalEmployees))
	}

	if len(in.TopShortageList) > 0 {
		names := make([]string, 0, 3)
		for _, e := range in.TopShortageList {
			if len(names) == 3 {
				break
			}
			names = append(names, e.CompanyName)
		}
		out = append(out, fmt.Sprintf("缺工较多的企业有%s。", strings.Join(names, "、")))
	}

	n := 0
	for _, a := range in.Aggregates.Anomalies {
		if a.HiringWhileShort() {
			n++
		}
	}
	if n > 0 {
		out = append(out, fmt.Sprintf("%d家企业同时位列缺工和招聘前列，存在边招边缺现象，需关注人员稳定性。", n))
	}
	return out
}
