package exporter

// ProgressEvent 导出进度事件（用于 UI 展示）
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
	Sheet   string `json:"sheet,omitempty"`
}

func reportProgress(progress func(ProgressEvent), percent int, stage, sheet string) {
	if progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	progress(ProgressEvent{
		Percent: percent,
		Stage:   stage,
		Sheet:   sheet,
	})
}

// stepPercent 第 done 步完成时的进度；数据加载占前 20%
func stepPercent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return 20 + done*80/total
}
