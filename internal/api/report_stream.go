package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/narrative"
)

// ReportStream 智能报告（SSE 流式输出）
// POST /api/report/stream?month=2025-06
func (h *Handler) ReportStream(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	res, err := h.dashboard.Report(ctx, f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	w, ok := startSSE(c)
	if !ok {
		return
	}
	w.event("start", "开始生成报告", map[string]any{"month": res.Month, "empty": res.Empty})
	if res.Empty {
		w.event("done", "所选月份没有数据", map[string]any{"text": ""})
		return
	}

	events, err := h.narrator.Generate(ctx, narrative.BuildContext(&res.Data))
	if err != nil {
		h.logger.Warn("narrative generate failed", zap.String("month", res.Month), zap.Error(err))
		w.event("error", "报告生成失败: "+err.Error(), nil)
		return
	}

	for ev := range events {
		switch ev.Type {
		case narrative.EventDelta:
			w.event("delta", "", map[string]any{"streamId": ev.StreamID, "text": ev.Text})
		case narrative.EventDone:
			w.event("done", "报告生成完成", map[string]any{"streamId": ev.StreamID})
		case narrative.EventError:
			h.logger.Warn("narrative stream error", zap.String("stream_id", ev.StreamID), zap.String("error", ev.Error))
			w.event("error", "报告生成失败: "+ev.Error, map[string]any{"streamId": ev.StreamID})
		}
	}
}
