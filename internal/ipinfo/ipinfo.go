// Package ipinfo looks up the caller's outbound IPv4 and IPv6 addresses.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/orgpulse/orgpulse/internal/config"
)

// Client queries an IP information service over both address families.
type Client struct {
	v4URL    string
	v6URL    string
	v4Client *http.Client
	v6Client *http.Client
	logger   *zap.Logger
	timeout  time.Duration
}

// New builds a Client. The v6 client pins its dialer to tcp6 so the lookup
// reflects the IPv6 route even on dual-stack hosts.
func New(cfg *config.Config, logger *zap.Logger) *Client {
	dialer := &net.Dialer{}
	v6Transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp6", addr)
		},
	}
	return &Client{
		v4URL:    cfg.IPv4InfoURL,
		v6URL:    cfg.IPv6InfoURL,
		v4Client: &http.Client{},
		v6Client: &http.Client{Transport: v6Transport},
		logger:   logger,
		timeout:  cfg.APITimeout,
	}
}

// Lookup fetches IPv4 info and, when reachable, merges the IPv6 address into
// the result under "ipv6". A missing IPv6 route is not an error.
func (c *Client) Lookup(ctx context.Context) (map[string]any, error) {
	info, err := c.fetch(ctx, c.v4Client, c.v4URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch IPv4 info: %w", err)
	}

	v6, err := c.fetch(ctx, c.v6Client, c.v6URL)
	if err != nil {
		c.logger.Debug("IPv6 lookup unavailable", zap.Error(err))
		return info, nil
	}
	if ip, ok := v6["ip"]; ok {
		info["ipv6"] = ip
	}
	return info, nil
}

func (c *Client) fetch(ctx context.Context, client *http.Client, url string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return info, nil
}
