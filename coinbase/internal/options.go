// Copyright (c) 2023 BVK Chaitanya

package internal

import "time"

type Options struct {
	RestHostname      string
	WebsocketHostname string

	// Insecure uses http and ws schemes instead of https and wss. Used in
	// tests.
	Insecure bool

	HttpClientTimeout time.Duration

	WebsocketRetryInterval time.Duration

	// RequestsPerSecond limits the rate of REST requests.
	RequestsPerSecond float64
}

func (v *Options) setDefaults() {
	if v.RestHostname == "" {
		v.RestHostname = "api.coinbase.com"
	}
	if v.WebsocketHostname == "" {
		v.WebsocketHostname = "advanced-trade-ws.coinbase.com"
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
}

func (v *Options) restScheme() string {
	if v.Insecure {
		return "http"
	}
	return "https"
}

func (v *Options) websocketScheme() string {
	if v.Insecure {
		return "ws"
	}
	return "wss"
}
