// Package pushclient delivers notification payloads to an external push
// provider over HTTP. Delivery guarantees are the provider's responsibility;
// this client only hands off payloads with the right arguments.
package pushclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Config controls the delivery client.
type Config struct {
	// Endpoint is the provider's dispatch URL. When empty, delivery is a
	// logged no-op (useful in development).
	Endpoint string `conf:"endpoint" yaml:"endpoint" json:"endpoint"`

	// AuthToken is sent as a bearer credential to the provider.
	AuthToken string `conf:"auth_token" yaml:"auth_token" json:"auth_token"`

	Timeout time.Duration `conf:"timeout" yaml:"timeout" json:"timeout"`
}

type Client struct {
	config Config
	client *http.Client
}

func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

// deliveryRequest is the provider wire format: the subscriber's endpoint and
// keys plus the payload to deliver.
type deliveryRequest struct {
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys"`
	Payload  any             `json:"payload"`
}

// Deliver hands one payload to the provider for one subscription.
func (c *Client) Deliver(ctx context.Context, endpoint string, keys json.RawMessage, payload any) error {
	if c.config.Endpoint == "" {
		return nil
	}

	body, err := json.Marshal(deliveryRequest{Endpoint: endpoint, Keys: keys, Payload: payload})
	if err != nil {
		return fmt.Errorf("pushclient: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pushclient: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushclient: deliver: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushclient: provider returned status %d", resp.StatusCode)
	}

	return nil
}
