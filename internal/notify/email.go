// Package notify dispatches alarm notifications to the email bridge.
// Delivery is fire-and-forget: failures are logged by the caller, never
// allowed to block alarm creation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hvac_scheduler/internal/models"
)

// Payload is the wire format the email bridge accepts.
type Payload struct {
	AlarmType     string   `json:"alarmType"`
	Details       string   `json:"details"`
	LocationID    string   `json:"locationId"`
	LocationName  string   `json:"locationName"`
	EquipmentName string   `json:"equipmentName"`
	AlarmID       string   `json:"alarmId"`
	Severity      string   `json:"severity"`
	Recipients    []string `json:"recipients"`
	AssignedTechs []string `json:"assignedTechs"`
}

// Notifier sends one alarm notification.
type Notifier interface {
	Notify(ctx context.Context, p Payload) error
}

// BridgeNotifier posts payloads to the email bridge endpoint with a small
// bounded retry. Per-recipient delivery results belong to the bridge.
type BridgeNotifier struct {
	url      string
	client   *http.Client
	attempts int
	backoff  time.Duration
}

func NewBridgeNotifier(url string, timeout time.Duration) *BridgeNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BridgeNotifier{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
}

func (n *BridgeNotifier) Notify(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var lastErr error
	delay := n.backoff
	for attempt := 1; attempt <= n.attempts; attempt++ {
		lastErr = n.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		if attempt == n.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("notify after %d attempts: %w", n.attempts, lastErr)
}

func (n *BridgeNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email bridge returned %d", resp.StatusCode)
	}
	return nil
}

// BuildPayload assembles the bridge payload from an alarm and the resolved
// recipient set.
func BuildPayload(a models.Alarm, recipients, techNames []string) Payload {
	return Payload{
		AlarmType:     a.Name,
		Details:       a.Message,
		LocationID:    a.LocationID,
		LocationName:  a.LocationName,
		EquipmentName: a.EquipmentName,
		AlarmID:       a.ID,
		Severity:      a.Severity,
		Recipients:    recipients,
		AssignedTechs: techNames,
	}
}
