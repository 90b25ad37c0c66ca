package chainrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinbridge/internal/application"
)

// Client speaks the node's REST API. Unsigned 64-bit fields arrive as JSON
// strings and are decoded through u64.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("node url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) LedgerInfo(ctx context.Context) (application.LedgerInfo, error) {
	var decoded struct {
		ChainID       uint64 `json:"chain_id"`
		LedgerVersion u64    `json:"ledger_version"`
		BlockHeight   u64    `json:"block_height"`
	}
	if err := c.get(ctx, "/", nil, &decoded); err != nil {
		return application.LedgerInfo{}, err
	}
	return application.LedgerInfo{
		ChainID:       decoded.ChainID,
		LedgerVersion: uint64(decoded.LedgerVersion),
		BlockHeight:   uint64(decoded.BlockHeight),
	}, nil
}

func (c *Client) BlockByHeight(ctx context.Context, height uint64) (application.BlockInfo, error) {
	var decoded struct {
		BlockHeight  u64    `json:"block_height"`
		BlockHash    string `json:"block_hash"`
		FirstVersion u64    `json:"first_version"`
		LastVersion  u64    `json:"last_version"`
	}
	path := fmt.Sprintf("/blocks/by_height/%d", height)
	if err := c.get(ctx, path, nil, &decoded); err != nil {
		return application.BlockInfo{}, err
	}
	return application.BlockInfo{
		Height:       uint64(decoded.BlockHeight),
		Hash:         decoded.BlockHash,
		FirstVersion: uint64(decoded.FirstVersion),
		LastVersion:  uint64(decoded.LastVersion),
	}, nil
}

func (c *Client) AccountResources(ctx context.Context, address string, version uint64) ([]application.Resource, error) {
	var decoded []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	path := fmt.Sprintf("/accounts/%s/resources", url.PathEscape(address))
	query := url.Values{"ledger_version": {strconv.FormatUint(version, 10)}}
	if err := c.get(ctx, path, query, &decoded); err != nil {
		return nil, err
	}
	resources := make([]application.Resource, 0, len(decoded))
	for _, resource := range decoded {
		resources = append(resources, application.Resource{Type: resource.Type, Data: resource.Data})
	}
	return resources, nil
}

func (c *Client) AccountResource(ctx context.Context, address, resourcePath string, version *uint64) (json.RawMessage, error) {
	var decoded struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	// resourcePath arrives pre-encoded; its angle brackets must survive.
	path := fmt.Sprintf("/accounts/%s/resource/%s", url.PathEscape(address), resourcePath)
	var query url.Values
	if version != nil {
		query = url.Values{"ledger_version": {strconv.FormatUint(*version, 10)}}
	}
	if err := c.get(ctx, path, query, &decoded); err != nil {
		return nil, err
	}
	return decoded.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return application.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("node status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// u64 decodes a JSON value that may be either a quoted or bare integer.
type u64 uint64

func (v *u64) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return errors.New("empty u64 value")
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 %q: %w", raw, err)
	}
	*v = u64(parsed)
	return nil
}
