package narrative

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemPrompt = `你是就业监测分析助手。请仅依据提供的 JSON 数据撰写当月用工形势分析，` +
	`不得推测或编造任何数字，不超过 %d 字。`

// ClientOptions 文本生成服务参数（OpenAI 兼容 chat/completions 接口）
type ClientOptions struct {
	Endpoint string // 完整接口地址
	APIKey   string
	Model    string
	MaxChars int
	Timeout  time.Duration
}

// Client 流式文本生成客户端
type Client struct {
	httpClient *resty.Client
	opts       ClientOptions
	logger     *zap.Logger
}

// NewClient 创建生成客户端
func NewClient(opts ClientOptions, logger *zap.Logger) *Client {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetAuthToken(opts.APIKey)

	return &Client{
		httpClient: client,
		opts:       opts,
		logger:     logger.Named("narrative"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []chatMessage `json:"messages"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate 调用生成服务；连接失败或非 200 响应直接返回错误，之后的输出通过通道流式返回
func (c *Client) Generate(ctx context.Context, in *Context) (<-chan Event, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal narrative context: %w", err)
	}

	streamID := uuid.NewString()
	c.logger.Info("Calling narrative API",
		zap.String("stream_id", streamID),
		zap.String("model", c.opts.Model),
		zap.String("month", in.Month),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(chatRequest{
			Model:  c.opts.Model,
			Stream: true,
			Messages: []chatMessage{
				{Role: "system", Content: fmt.Sprintf(systemPrompt, c.opts.MaxChars)},
				{Role: "user", Content: string(payload)},
			},
		}).
		Post(c.opts.Endpoint)
	if err != nil {
		c.logger.Error("Narrative API call failed", zap.String("stream_id", streamID), zap.Error(err))
		return nil, fmt.Errorf("failed to call narrative API: %w", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, 1024))
		_ = body.Close()
		c.logger.Error("Narrative API returned error",
			zap.String("stream_id", streamID),
			zap.Int("status_code", resp.StatusCode()),
			zap.ByteString("body", msg),
		)
		return nil, fmt.Errorf("narrative API error: status %d", resp.StatusCode())
	}

	ch := make(chan Event)
	go c.stream(ctx, streamID, body, ch)
	return ch, nil
}

// stream 逐行解析 SSE（data: ...），直到 [DONE]、字数上限或 ctx 取消
func (c *Client) stream(ctx context.Context, streamID string, body io.ReadCloser, ch chan<- Event) {
	defer close(ch)
	defer body.Close()

	b := &budget{remaining: c.opts.MaxChars}
	chars := 0
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Warn("skip malformed narrative chunk", zap.String("stream_id", streamID), zap.Error(err))
			continue
		}
		if chunk.Error != nil {
			emit(ctx, ch, Event{Type: EventError, StreamID: streamID, Error: chunk.Error.Message})
			return
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			text, exhausted := b.take(choice.Delta.Content)
			if text != "" {
				chars += len([]rune(text))
				if !emit(ctx, ch, Event{Type: EventDelta, StreamID: streamID, Text: text}) {
					c.logger.Info("narrative stream cancelled", zap.String("stream_id", streamID))
					return
				}
			}
			if exhausted {
				emit(ctx, ch, Event{Type: EventDone, StreamID: streamID})
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			c.logger.Info("narrative stream cancelled", zap.String("stream_id", streamID))
			return
		}
		c.logger.Error("read narrative stream failed", zap.String("stream_id", streamID), zap.Error(err))
		emit(ctx, ch, Event{Type: EventError, StreamID: streamID, Error: err.Error()})
		return
	}

	c.logger.Info("narrative stream finished", zap.String("stream_id", streamID), zap.Int("chars", chars))
	emit(ctx, ch, Event{Type: EventDone, StreamID: streamID})
}
