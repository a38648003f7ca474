// Package notify delivers best-effort push notifications to registered
// device tokens. Delivery is fire-and-forget: a failed token never fails the
// batch, and nothing is retried.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Message is a push notification addressed to a set of device tokens.
type Message struct {
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	Tokens []string          `json:"-"`
}

// Sender delivers a message to all of its tokens in one batched call.
// Per-token delivery failures must not fail the call.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DefaultEndpoint is the FCM legacy HTTP send endpoint.
const DefaultEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMSender sends notifications through the FCM legacy HTTP API.
type FCMSender struct {
	Endpoint  string
	ServerKey string
	Client    *http.Client
}

// NewFCMSender creates an FCM sender with a bounded-timeout HTTP client.
func NewFCMSender(serverKey string) *FCMSender {
	return &FCMSender{
		Endpoint:  DefaultEndpoint,
		ServerKey: serverKey,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send posts the message to FCM for all tokens in one call. Tokens that FCM
// reports as failed are logged and dropped; only transport-level problems
// are returned as errors.
func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Tokens) == 0 {
		return nil
	}

	payload, err := json.Marshal(fcmRequest{
		RegistrationIDs: msg.Tokens,
		Notification:    fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:            msg.Data,
	})
	if err != nil {
		return fmt.Errorf("encoding fcm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.ServerKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sending fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("fcm returned status %d: %s", resp.StatusCode, body)
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding fcm response: %w", err)
	}

	if result.Failure > 0 {
		for i, r := range result.Results {
			if r.Error != "" && i < len(msg.Tokens) {
				slog.Warn("push delivery failed for token", "error", r.Error, "title", msg.Title)
			}
		}
	}
	return nil
}

// LogSender logs notifications instead of delivering them. Used when no FCM
// server key is configured.
type LogSender struct{}

// Send logs the message and reports success.
func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("push delivery disabled, dropping notification",
		"title", msg.Title, "tokens", len(msg.Tokens))
	return nil
}
