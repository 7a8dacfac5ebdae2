package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/events"
	"github.com/spec-kit/timebank/internal/repository/memory"
	"github.com/spec-kit/timebank/internal/service"
)

func TestNotificationServicePostsLedgerEvents(t *testing.T) {
	received := make(chan map[string]any, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	dispatcher := events.NewInMemoryDispatcher(nil)
	notifier := service.NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: srv.URL})
	notifier.RegisterHandlers()

	points := service.NewPointsService(service.PointsDependencies{Store: memory.New(), Dispatcher: dispatcher})
	if _, err := points.SubmitRequest(context.Background(), "s1", 7, ""); err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	notifier.Wait()

	select {
	case body := <-received:
		if body["type"] != string(events.EventPointsRequested) {
			t.Fatalf("unexpected webhook body %v", body)
		}
		payload, _ := body["payload"].(map[string]any)
		if payload["student_id"] != "s1" || payload["point_change"] != float64(7) {
			t.Fatalf("unexpected payload %v", payload)
		}
	default:
		t.Fatal("webhook was not called")
	}
}

func TestNotificationServiceWithoutWebhookOnlyLogs(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	notifier := service.NewNotificationService(dispatcher, nil, config.NotificationConfig{})
	notifier.RegisterHandlers()

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventBalancesRecalculated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	notifier.Wait()
}
