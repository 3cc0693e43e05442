package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bullsignals/internal/model"
)

func sampleSignal() *model.Signal {
	return &model.Signal{
		Symbol:     "BTCUSDT",
		Side:       model.SideCall,
		EntryPrice: 100,
		TPPrice:    101,
		SLPrice:    98,
		Leverage:   20,
	}
}

func TestSignalOpenedAlert(t *testing.T) {
	alert := SignalOpenedAlert("abc", sampleSignal())
	if alert.Level != AlertInfo {
		t.Errorf("expected INFO level, got %s", alert.Level)
	}
	if !strings.Contains(alert.Title, "CALL") || !strings.Contains(alert.Title, "BTCUSDT") {
		t.Errorf("title missing side/symbol: %q", alert.Title)
	}
	if !strings.Contains(alert.Message, "id=abc") {
		t.Errorf("message missing id: %q", alert.Message)
	}
}

func TestSignalClosedAlert_StopLossIsWarning(t *testing.T) {
	sig := sampleSignal()
	sig.Reason = model.ReasonSL
	if alert := SignalClosedAlert("abc", sig); alert.Level != AlertWarning {
		t.Errorf("expected WARNING for SL close, got %s", alert.Level)
	}

	sig.Reason = model.ReasonTP
	if alert := SignalClosedAlert("abc", sig); alert.Level != AlertInfo {
		t.Errorf("expected INFO for TP close, got %s", alert.Level)
	}
}

type recordingNotifier struct {
	sent int
	err  error
}

func (r *recordingNotifier) Send(ctx context.Context, alert Alert) error {
	r.sent++
	return r.err
}

func TestMulti_DeliversToAllDespiteFailure(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("down")}
	ok := &recordingNotifier{}

	err := Multi{failing, ok}.Send(context.Background(), Alert{Level: AlertInfo})
	if err == nil {
		t.Error("expected first error to surface")
	}
	if failing.sent != 1 || ok.sent != 1 {
		t.Errorf("expected both backends called, got %d and %d", failing.sent, ok.sent)
	}
}

func TestWebhookNotifier_PostsAlertJSON(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	alert := Alert{Level: AlertWarning, Title: "Signal closed (SL)", Message: "id=abc"}
	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), alert); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got != alert {
		t.Errorf("server received %+v, want %+v", got, alert)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{}); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := escapeMarkdownV2("entry=100.50 (tp)")
	want := `entry\=100\.50 \(tp\)`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
