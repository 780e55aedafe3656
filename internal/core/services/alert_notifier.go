package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
)

// AlertNotifier posts newly created alerts to a webhook.
// Delivery is best effort: failures are logged and never reach the caller.
type AlertNotifier struct {
	client  *resty.Client
	url     string
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// AlertNotification is the webhook payload
type AlertNotification struct {
	AlertID          string     `json:"alertId"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	Priority         string     `json:"priority"`
	ZoneID           string     `json:"zoneId"`
	TargetHouseholds []string   `json:"targetHouseholds"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

// NewAlertNotifier creates a notifier; an empty url disables it
func NewAlertNotifier(url string, timeout time.Duration, log *zap.Logger) *AlertNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AlertNotifier{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		url:     url,
		timeout: timeout,
		log:     log,
	}
}

// Enabled reports whether notifications are sent
func (n *AlertNotifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Notify sends the alert in the background
func (n *AlertNotifier) Notify(alert *models.Alert) {
	if !n.Enabled() {
		return
	}

	payload := AlertNotification{
		AlertID:          alert.ID,
		Title:            alert.Title,
		Message:          alert.Message,
		Priority:         alert.Priority,
		ZoneID:           alert.ZoneID,
		TargetHouseholds: alert.TargetIDs(),
		ExpiresAt:        alert.ExpiresAt,
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(n.url)
		if err != nil {
			n.log.Warn("alert notification failed",
				zap.String("alert_id", payload.AlertID),
				zap.Error(err),
			)
			return
		}
		if resp.IsError() {
			n.log.Warn("alert notification rejected",
				zap.String("alert_id", payload.AlertID),
				zap.Int("status_code", resp.StatusCode()),
			)
			return
		}
		n.log.Debug("alert notification sent", zap.String("alert_id", payload.AlertID))
	}()
}

// Wait blocks until in-flight notifications finish
func (n *AlertNotifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
