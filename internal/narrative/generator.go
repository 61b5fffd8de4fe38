package narrative

import (
	"context"
	"strings"
	"unicode/utf8"
)

// EventType 流式事件类型
type EventType string

const (
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event 流式输出事件
type Event struct {
	Type     EventType `json:"type"`
	StreamID string    `json:"streamId"`
	Text     string    `json:"text,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Generator 根据上下文流式生成分析文字；ctx 取消后停止输出并关闭通道
type Generator interface {
	Generate(ctx context.Context, in *Context) (<-chan Event, error)
}

// Collect 读取完整输出
func Collect(ch <-chan Event) (string, error) {
	var sb strings.Builder
	for ev := range ch {
		switch ev.Type {
		case EventDelta:
			sb.WriteString(ev.Text)
		case EventError:
			return sb.String(), &StreamError{Message: ev.Error}
		}
	}
	return sb.String(), nil
}

// StreamError 生成过程中的错误
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "narrative stream failed: " + e.Message
}

// budget 按字符（rune）计的输出上限
type budget struct {
	remaining int
}

// take 截取不超过剩余额度的文本；返回截取结果与额度是否用完
func (b *budget) take(text string) (string, bool) {
	if b.remaining <= 0 {
		return "", true
	}
	n := utf8.RuneCountInString(text)
	if n < b.remaining {
		b.remaining -= n
		return text, false
	}
	out := []rune(text)[:b.remaining]
	b.remaining = 0
	return string(out), true
}

// emit 发送事件；ctx 取消时返回 false
func emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
