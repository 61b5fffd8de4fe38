package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

func sampleReport() *dashboard.Report {
	delta := 20
	return &dashboard.Report{
		Month:  "2025-06",
		Totals: model.Totals{CompanyCount: 4, TotalEmployees: 650, ShortageCount: 76, RecruitedNew: 56, ResignedTotal: 8, NetGrowth: 48},
		Towns: []model.TownStat{
			{Town: "A镇", Totals: model.Totals{TotalEmployees: 600}},
			{Town: "B镇", Totals: model.Totals{TotalEmployees: 50}},
		},
		TopShortage: []model.RankEntry{{Rank: 1, CompanyID: 1, CompanyName: "甲", Value: 40}},
		TopHires:    []model.RankEntry{{Rank: 1, CompanyID: 1, CompanyName: "甲", Value: 30}},
		Anomalies:   []model.Anomaly{{CompanyID: 1, CompanyName: "甲", ShortageTotal: 40, RecruitedNew: 30}},
		YoY: []model.YoYComparison{
			{Month: "2025-05", PriorMonth: "2024-05"},
			{Month: "2025-06", PriorMonth: "2024-06", Available: true, EmployeesDelta: &delta},
		},
	}
}

func TestBuildContext_PassesThroughValues(t *testing.T) {
	r := sampleReport()
	c := BuildContext(r)

	assert.Equal(t, "2025-06", c.Month)
	assert.Equal(t, r.Totals, c.Aggregates.Totals)
	assert.Equal(t, r.TopShortage, c.TopShortageList)
	assert.Equal(t, r.TopHires, c.TopHireList)
	require.NotNil(t, c.Aggregates.YoY)
	assert.Equal(t, 20, *c.Aggregates.YoY.EmployeesDelta)
	assert.Len(t, c.Aggregates.TopTowns, 2)
	assert.NotNil(t, c.Aggregates.TopIndustries)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"topShortageList"`)
	assert.Contains(t, string(b), `"topHireList"`)
	assert.Contains(t, string(b), `"aggregates"`)
}

func TestTemplateGenerator(t *testing.T) {
	g := &TemplateGenerator{}
	ch, err := g.Generate(context.Background(), BuildContext(sampleReport()))
	require.NoError(t, err)

	text, err := Collect(ch)
	require.NoError(t, err)
	assert.Contains(t, text, "2025-06共有4家企业填报，在岗职工650人")
	assert.Contains(t, text, "在岗职工变化+20人")
	assert.Contains(t, text, "边招边缺")
}

func TestTemplateGenerator_MaxChars(t *testing.T) {
	g := &TemplateGenerator{MaxChars: 10}
	ch, err := g.Generate(context.Background(), BuildContext(sampleReport()))
	require.NoError(t, err)

	text, err := Collect(ch)
	require.NoError(t, err)
	assert.Equal(t, 10, utf8.RuneCountInString(text))
}

func sseServer(t *testing.T, status int, chunks ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"stream":true`)

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func delta(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]string{"content": text}}},
	})
	return string(b)
}

func newTestClient(url string, maxChars int) *Client {
	return NewClient(ClientOptions{
		Endpoint: url,
		APIKey:   "test-key",
		Model:    "test-model",
		MaxChars: maxChars,
		Timeout:  5 * time.Second,
	}, zap.NewNop())
}

func TestClient_StreamsDeltas(t *testing.T) {
	srv := sseServer(t, http.StatusOK, delta("本月"), "not json", delta("用工平稳。"), "[DONE]", delta("忽略"))
	c := newTestClient(srv.URL, 500)

	ch, err := c.Generate(context.Background(), BuildContext(sampleReport()))
	require.NoError(t, err)

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 3)
	assert.Equal(t, EventDelta, events[0].Type)
	assert.Equal(t, "本月", events[0].Text)
	assert.Equal(t, "用工平稳。", events[1].Text)
	assert.Equal(t, EventDone, events[2].Type)
	assert.NotEmpty(t, events[0].StreamID)
	assert.Equal(t, events[0].StreamID, events[2].StreamID)
}

func TestClient_BoundsOutput(t *testing.T) {
	srv := sseServer(t, http.StatusOK, delta(strings.Repeat("就业", 5)), delta("剩余"), "[DONE]")
	c := newTestClient(srv.URL, 6)

	ch, err := c.Generate(context.Background(), BuildContext(sampleReport()))
	require.NoError(t, err)
	text, err := Collect(ch)
	require.NoError(t, err)
	assert.Equal(t, "就业就业就业", text)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := sseServer(t, http.StatusUnauthorized)
	c := newTestClient(srv.URL, 500)

	_, err := c.Generate(context.Background(), BuildContext(sampleReport()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_ErrorChunk(t *testing.T) {
	srv := sseServer(t, http.StatusOK, delta("开头"), `{"error":{"message":"rate limited"}}`)
	c := newTestClient(srv.URL, 500)

	ch, err := c.Generate(context.Background(), BuildContext(sampleReport()))
	require.NoError(t, err)
	text, err := Collect(ch)
	assert.Equal(t, "开头", text)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "rate limited", streamErr.Message)
}

func TestClient_Cancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", delta("第一段"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(srv.URL, 500)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.Generate(ctx, BuildContext(sampleReport()))
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "第一段", first.Text)
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestBudget(t *testing.T) {
	b := &budget{remaining: 3}
	text, exhausted := b.take("ab")
	assert.Equal(t, "ab", text)
	assert.False(t, exhausted)
	text, exhausted = b.take("缺工人数")
	assert.Equal(t, "缺", text)
	assert.True(t, exhausted)
	text, exhausted = b.take("x")
	assert.Empty(t, text)
	assert.True(t, exhausted)
}
