package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/model"
)

type telegramStub struct {
	mu       sync.Mutex
	fails    int
	sent     []map[string]string
	updates  string
	attempts int
}

func (s *telegramStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		s.attempts++
		if s.attempts <= s.fails {
			http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		s.sent = append(s.sent, payload)
		w.Write([]byte(`{"ok":true}`))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		w.Write([]byte(s.updates))
	default:
		http.NotFound(w, r)
	}
}

func newTestNotifier(t *testing.T, stub *telegramStub) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "100", "")
	n.APIBase = srv.URL
	n.Client = srv.Client()
	n.Backoff = time.Millisecond
	return n
}

func TestSendWithRetry(t *testing.T) {
	stub := &telegramStub{fails: 2}
	n := newTestNotifier(t, stub)
	if err := n.SendWithRetry(context.Background(), "hello", 3); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if stub.attempts != 3 || len(stub.sent) != 1 {
		t.Errorf("attempts=%d sent=%d", stub.attempts, len(stub.sent))
	}
	if got := stub.sent[0]; got["chat_id"] != "100" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}

	stub = &telegramStub{fails: 10}
	n = newTestNotifier(t, stub)
	if err := n.SendWithRetry(context.Background(), "hello", 1); err == nil {
		t.Error("expected error when retries are exhausted")
	}
	if stub.attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", stub.attempts)
	}
}

func TestPollOnce(t *testing.T) {
	stub := &telegramStub{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /quote aapl ","chat":{"id":100}}},
		{"update_id":8,"message":{"text":""}},
		{"update_id":9,"message":{"text":"/portfolios","chat":{"id":999}}},
		{"update_id":10,"message":{"text":"/silent","chat":{"id":100}}}
	]}`}
	n := newTestNotifier(t, stub)

	var got []string
	next, err := n.PollOnce(context.Background(), 0, 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		if cmd == "/silent" {
			return ""
		}
		return "reply to " + cmd
	})
	if err != nil {
		t.Fatal(err)
	}
	if next != 11 {
		t.Errorf("expected next offset 11, got %d", next)
	}
	if len(got) != 2 || got[0] != "/quote aapl" || got[1] != "/silent" {
		t.Errorf("only commands from the configured chat should run, got %v", got)
	}
	if len(stub.sent) != 1 || stub.sent[0]["chat_id"] != "100" {
		t.Errorf("expected one reply to the configured chat: %v", stub.sent)
	}
}

func TestFormatAdviceDigest(t *testing.T) {
	advice := []model.AdviceRecord{
		{Symbol: "AAPL", Action: model.ActionHold, Confidence: 60},
		{Symbol: "TSLA", Action: model.ActionSell, Confidence: 72, CurrentPrice: 200, StopLoss: 180, TargetPrice: 230},
		model.DegradedAdvice("h3", "BAD", nil),
	}
	msg := FormatAdviceDigest("Growth <main>", advice)
	if !strings.Contains(msg, "TSLA") || strings.Contains(msg, "AAPL") {
		t.Errorf("digest should list only actionable advice:\n%s", msg)
	}
	if !strings.Contains(msg, "Growth &lt;main&gt;") {
		t.Error("portfolio name must be escaped")
	}
	if !strings.Contains(msg, "1 of 3 holdings") || !strings.Contains(msg, "1 holdings could not be analysed") {
		t.Errorf("unexpected footer:\n%s", msg)
	}

	if FormatAdviceDigest("x", advice[:1]) != "" {
		t.Error("all-HOLD batch should produce no digest")
	}
}

func TestFormatQuote(t *testing.T) {
	q := model.Quote{Symbol: "MSFT", CurrentPrice: 99, PreviousClose: 100}
	q.Derive()
	msg := FormatQuote(q)
	if !strings.Contains(msg, "📉") || !strings.Contains(msg, "-1.00%") {
		t.Errorf("unexpected quote message %q", msg)
	}
}
