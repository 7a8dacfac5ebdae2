package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/events"
)

const webhookTimeout = 5 * time.Second

// NotificationService logs every ledger event and, when a webhook URL is
// configured, posts the event to it as JSON in the background.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventPointsRequested,
		events.EventPointsValidated,
		events.EventBalancesRecalculated,
	} {
		n.dispatcher.Subscribe(t, n.handle)
	}
}

// Wait blocks until every pending webhook delivery has finished.
func (n *NotificationService) Wait() {
	n.inflight.Wait()
}

func (n *NotificationService) handle(_ context.Context, event events.Event) error {
	n.logger.Info("ledger event",
		zap.String("event_type", string(event.Type)),
		zap.Int64("event_id", event.LedgerID),
		zap.Any("payload", event.Payload))

	if n.webhookURL == "" {
		return nil
	}
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		if err := n.postWebhook(event); err != nil {
			n.logger.Warn("webhook delivery failed",
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}()
	return nil
}

func (n *NotificationService) postWebhook(event events.Event) error {
	agent := fiber.Post(n.webhookURL)
	agent.JSON(event)
	agent.Timeout(webhookTimeout)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook responded %d", code)
	}
	return nil
}
