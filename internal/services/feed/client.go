package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"masterspa/internal/logger"
	"masterspa/internal/settings"
)

// SecretHeader carries the shared secret on feed requests and webhooks.
const SecretHeader = "X-API-Secret"

type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(logger *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// FetchProducts downloads the product feed described by the settings and
// returns its raw descriptors. Any transport, status or JSON error fails the
// whole fetch; a body of an unexpected shape yields no descriptors.
func (c *Client) FetchProducts(ctx context.Context, s settings.Settings) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.RequestTimeout())
	defer cancel()

	method := http.MethodGet
	if strings.EqualFold(s.RequestMethod, http.MethodPost) {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, s.APIEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.AuthHeader != "" {
		req.Header.Set(SecretHeader, s.AuthHeader)
	}

	c.logger.Debug("Fetching products: %s %s", method, s.APIEndpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	descriptors, err := decodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON response from API: %w", err)
	}
	return descriptors, nil
}

// decodeEnvelope accepts a bare array or an object wrapping the array under
// "data" or "products".
func decodeEnvelope(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)

	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, err
	}

	switch root.(type) {
	case []interface{}:
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	case map[string]interface{}:
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, err
		}
		for _, key := range []string{"data", "products"} {
			if list, ok := rawArray(wrapper[key]); ok {
				return list, nil
			}
		}
	}
	return nil, nil
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}
