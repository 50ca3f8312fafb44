package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gateway dispatches one push notification to a device token. Failures are
// reported as errors and downgraded by the notifier; they never abort a
// sweep.
type Gateway interface {
	Send(ctx context.Context, token, title, body string) error
}

// HTTPGateway posts FCM-style messages to the configured push endpoint.
type HTTPGateway struct {
	url       string
	serverKey string
	client    *http.Client
}

func NewHTTPGateway(url, serverKey string) *HTTPGateway {
	return &HTTPGateway{
		url:       url,
		serverKey: serverKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) Send(ctx context.Context, token, title, body string) error {
	payload := map[string]interface{}{
		"to": token,
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("push dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
