package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockDash/internal/model"
	"StockDash/internal/recorder"
)

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSend_TransportErrorHidesToken(t *testing.T) {
	n := NewTelegramNotifier("SECRET-TOKEN", "42", "")
	n.APIBase = "http://127.0.0.1:1"
	err := n.Send(context.Background(), "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-TOKEN")
}

func TestStartPolling_HandlesCommandsFromOwnChat(t *testing.T) {
	var (
		mu      sync.Mutex
		sent    []string
		polled  int
		handled = make(chan string, 4)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			polled++
			if polled == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/run","chat":{"id":99}}}
				]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			sent = append(sent, p["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(ctx context.Context, cmd string) string {
			handled <- cmd
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case cmd := <-handled:
		assert.Equal(t, "/status", cmd)
	case <-time.After(2 * time.Second):
		t.Fatal("command not handled")
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return polled >= 2 && len(sent) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Len(t, handled, 0, "commands from other chats are ignored")
	assert.Equal(t, []string{"reply to /status"}, sent)
}

func report() *model.RunReport {
	rep := model.NewRunReport(4, model.Checkpoint{Pass: "extra", Index: 2})
	rep.FinishedAt = rep.StartedAt.Add(95 * time.Second)
	rep.Status = model.RunCompleted
	rep.Passes = []model.PassReport{{
		Name: "extra",
		Batches: []model.BatchReport{{
			Tickers: []string{"C&D", "EEE"},
			Outcomes: []model.Outcome{
				{Ticker: "C&D", Category: model.CategoryRatios, Err: errors.New("boom")},
				{Ticker: "EEE", Category: model.CategoryRatios},
			},
		}},
	}}
	rep.Globals = []model.Outcome{{Category: model.CategoryDividendsUpcoming}}
	return rep
}

func TestFormatRunReport(t *testing.T) {
	msg := FormatRunReport(report(), nil)
	assert.Contains(t, msg, "⚠️")
	assert.Contains(t, msg, "Status: COMPLETED")
	assert.Contains(t, msg, "Duration: 1m35s")
	assert.Contains(t, msg, "Resumed from: extra @ 2")
	assert.Contains(t, msg, "Tickers: 1 ok / 2 processed (universe 4)")
	assert.Contains(t, msg, "• extra: 1 ok, 1 failed")
	assert.Contains(t, msg, "• globals: 1/1 ok")
	assert.Contains(t, msg, "C&amp;D")

	rep := report()
	rep.Status = model.RunAborted
	msg = FormatRunReport(rep, context.Canceled)
	assert.Contains(t, msg, "⛔")
	assert.Contains(t, msg, "Error: context canceled")
}

func TestFormatStatus(t *testing.T) {
	msg := FormatStatus(model.Checkpoint{}, nil, false)
	assert.Contains(t, msg, "Checkpoint: none")
	assert.Contains(t, msg, "Last run: none recorded")

	started := time.Date(2026, 3, 2, 6, 0, 0, 0, time.Local)
	msg = FormatStatus(model.Checkpoint{Index: 40}, &recorder.RunSummary{
		StartedAt:  started,
		FinishedAt: started.Add(time.Hour),
		Status:     model.RunAborted,
		Processed:  40,
		Failed:     3,
		Error:      "save checkpoint core/40: <disk full>",
	}, true)
	assert.Contains(t, msg, "A run is in progress.")
	assert.Contains(t, msg, "Checkpoint: first pass @ 40")
	assert.Contains(t, msg, "Last run: 2026-03-02 06:00 (ABORTED)")
	assert.Contains(t, msg, "Duration: 1h0m0s")
	assert.Contains(t, msg, "&lt;disk full&gt;")
}

func TestListed(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = "T"
	}
	assert.True(t, strings.HasSuffix(listed(items), "and 5 more"))
	assert.Equal(t, "A, B", listed([]string{"A", "B"}))
}
