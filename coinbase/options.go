// Copyright (c) 2023 BVK Chaitanya

package coinbase

import "time"

var (
	RestHostname      = "api.coinbase.com"
	WebsocketHostname = "advanced-trade-ws.coinbase.com"
)

type Options struct {
	// Hostnames for the REST and WebSocket service endpoints.
	RestHostname      string
	WebsocketHostname string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// Timeout interval to create a new websocket session after a failure.
	WebsocketRetryInterval time.Duration

	// Max number of REST requests per second.
	RequestsPerSecond float64

	// ProductType selects the products loaded into the catalog.
	ProductType string

	insecure bool
}

func (v *Options) setDefaults() {
	if v.RestHostname == "" {
		v.RestHostname = RestHostname
	}
	if v.WebsocketHostname == "" {
		v.WebsocketHostname = WebsocketHostname
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
	if v.WebsocketRetryInterval == 0 {
		v.WebsocketRetryInterval = time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 10
	}
	if v.ProductType == "" {
		v.ProductType = "SPOT"
	}
}
