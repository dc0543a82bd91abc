// Copyright (c) 2023 BVK Chaitanya

package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bvk/watchlist/lifetime"
	"golang.org/x/time/rate"
)

// Client is a client for the public market data endpoints of the Coinbase
// Advanced Trade api. No credentials are required.
type Client struct {
	group lifetime.Group

	opts Options

	client *http.Client

	limiter *rate.Limiter
}

func New(opts *Options) *Client {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	return &Client{
		opts: *opts,
		client: &http.Client{
			Timeout: opts.HttpClientTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// Close stops all background goroutines, including the websockets.
func (c *Client) Close() error {
	c.group.Close()
	return nil
}

func (c *Client) Go(f func(context.Context)) {
	c.group.Go(f)
}

func (c *Client) getJSON(ctx context.Context, url *url.URL, result any) error {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
		if err != nil {
			return fmt.Errorf("could not create http get request: %w", err)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("could not do http client request", "url", url, "err", err)
			}
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("get request returned with status code 429 - too many requests (will retry)", "url", url)
			if lifetime.Sleep(ctx, time.Second); ctx.Err() != nil {
				return context.Cause(ctx)
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			slog.Error("http GET is unsuccessful", "status", resp.StatusCode, "url", url.String())
			return fmt.Errorf("http GET returned %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("could not decode response to json: %w", err)
		}
		return nil
	}
}

// ListProducts returns the public products of a type, like "SPOT".
func (c *Client) ListProducts(ctx context.Context, productType string) (*ListProductsResponse, error) {
	values := make(url.Values)
	if productType != "" {
		values.Set("product_type", productType)
	}

	url := &url.URL{
		Scheme:   c.opts.restScheme(),
		Host:     c.opts.RestHostname,
		Path:     "/api/v3/brokerage/market/products",
		RawQuery: values.Encode(),
	}
	resp := new(ListProductsResponse)
	if err := c.getJSON(ctx, url, resp); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not list products", "url", url, "err", err)
		}
		return nil, err
	}
	return resp, nil
}
