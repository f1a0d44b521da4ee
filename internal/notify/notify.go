// Package notify pushes booking results to the user's phone.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Notifier delivers a short markdown message. Callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

var ErrInvalidKey = errors.New("invalid sendkey format for sctp")

var sctpKeyRe = regexp.MustCompile(`^sctp(\d+)t`)

// Endpoint returns the ServerChan URL for key. Keys of the "sctp<N>t..."
// family are routed to their numbered push host.
func Endpoint(key string) (string, error) {
	if strings.HasPrefix(key, "sctp") {
		m := sctpKeyRe.FindStringSubmatch(key)
		if m == nil {
			return "", ErrInvalidKey
		}
		return fmt.Sprintf("https://%s.push.ft07.com/send/%s.send", m[1], key), nil
	}
	return fmt.Sprintf("https://sctapi.ftqq.com/%s.send", key), nil
}

// ServerChan sends messages through the ServerChan push service. An empty Key
// turns Notify into a no-op.
type ServerChan struct {
	Key string

	// Endpoint overrides the URL derived from Key.
	Endpoint string
	HTTP     *http.Client
	Log      *slog.Logger
}

func (s *ServerChan) Notify(ctx context.Context, title, body string) error {
	if s.Key == "" {
		return nil
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		var err error
		if endpoint, err = Endpoint(s.Key); err != nil {
			return err
		}
	}
	hc := s.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}

	payload, err := json.Marshal(map[string]string{"title": title, "desp": body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	res, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("serverchan: %w", err)
	}
	defer res.Body.Close()
	resp, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if res.StatusCode >= 400 {
		return fmt.Errorf("serverchan: status %d: %s", res.StatusCode, resp)
	}
	if s.Log != nil {
		s.Log.Info("notification sent", "title", title, "response", string(resp))
	}
	return nil
}
