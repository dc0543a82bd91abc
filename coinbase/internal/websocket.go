// Copyright (c) 2023 BVK Chaitanya

package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bvk/watchlist/lifetime"
	"github.com/gorilla/websocket"
)

// Websocket tracks the channel subscriptions of a websocket feed. Changes
// made with Subscribe and Unsubscribe are applied to the live connection
// and to every new connection after a failure.
type Websocket struct {
	client *Client

	mu sync.Mutex

	dirty           atomic.Bool
	chanProductsMap map[string][]string

	// connected is incremented every time a new websocket session is
	// established.
	connected atomic.Int64
}

func (w *Websocket) dial(ctx context.Context) (*websocket.Conn, error) {
	var dialer websocket.Dialer
	addr := fmt.Sprintf("%s://%s", w.client.opts.websocketScheme(), w.client.opts.WebsocketHostname)
	conn, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Sessions returns the number of websocket sessions established so far.
func (w *Websocket) Sessions() int64 {
	return w.connected.Load()
}

// Subscribe adds products to a channel. Channels like heartbeats take no
// products.
func (w *Websocket) Subscribe(channel string, products ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old, ok := w.chanProductsMap[channel]
	nproducts := slices.Clone(old)
	for _, p := range products {
		if !slices.Contains(nproducts, p) {
			nproducts = append(nproducts, p)
		}
	}
	if !ok || len(nproducts) != len(old) {
		slices.Sort(nproducts)
		w.chanProductsMap[channel] = nproducts
		w.dirty.Store(true)
	}
}

// Unsubscribe removes products from a channel. Channel is dropped when it has
// no more products.
func (w *Websocket) Unsubscribe(channel string, products ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old, ok := w.chanProductsMap[channel]
	if !ok {
		return
	}
	nproducts := slices.DeleteFunc(slices.Clone(old), func(p string) bool {
		return slices.Contains(products, p)
	})
	if len(nproducts) == len(old) && len(products) > 0 {
		return
	}
	if len(nproducts) == 0 {
		delete(w.chanProductsMap, channel)
	} else {
		w.chanProductsMap[channel] = nproducts
	}
	w.dirty.Store(true)
}

// diff returns the current channel subscriptions and the changes since the
// old subscriptions.
func (w *Websocket) diff(oldMap map[string][]string) (newMap, subMap, unsubMap map[string][]string) {
	w.mu.Lock()
	newMap = make(map[string][]string)
	for k, v := range w.chanProductsMap {
		newMap[k] = slices.Clone(v)
	}
	w.dirty.Store(false)
	w.mu.Unlock()

	// minus returns items present in `a`, but not in `b`.
	minus := func(a, b []string) []string {
		var vs []string
		for _, v := range a {
			if !slices.Contains(b, v) {
				vs = append(vs, v)
			}
		}
		return vs
	}

	subMap = make(map[string][]string)
	unsubMap = make(map[string][]string)
	for ch, ps := range newMap {
		old, ok := oldMap[ch]
		if !ok {
			subMap[ch] = ps
			continue
		}
		if vs := minus(ps, old); len(vs) > 0 {
			subMap[ch] = vs
		}
	}
	for ch, ps := range oldMap {
		current, ok := newMap[ch]
		if !ok {
			unsubMap[ch] = ps
			continue
		}
		if vs := minus(ps, current); len(vs) > 0 {
			unsubMap[ch] = vs
		}
	}
	return newMap, subMap, unsubMap
}

func readMessage(ctx context.Context, conn *websocket.Conn) (*Message, error) {
	stopc := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		close(stopc)
	})

	_, data, err := conn.ReadMessage()
	if !stop() {
		<-stopc
		conn.SetReadDeadline(time.Time{})
		return nil, context.Cause(ctx)
	}
	if err != nil {
		return nil, err
	}

	m := new(Message)
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("could not unmarshal websocket message: %w", err)
	}
	if m.Type == "error" {
		return nil, fmt.Errorf("websocket error message: %s", m.Message)
	}
	return m, nil
}

type MessageHandler = func(*Message)

// GetMessages opens a websocket in the background and passes every message
// to the handler. Connection is retried after failures till the client is
// closed.
func (c *Client) GetMessages(handler MessageHandler) *Websocket {
	w := &Websocket{
		client:          c,
		chanProductsMap: make(map[string][]string),
	}

	dispatch := func(ctx context.Context) error {
		conn, err := w.dial(ctx)
		if err != nil {
			slog.Warn("could not open new websocket (will retry)", "err", err)
			return err
		}
		defer conn.Close()
		w.connected.Add(1)

		current := make(map[string][]string)
		for ctx.Err() == nil {
			if w.dirty.Load() {
				clone, subs, unsubs := w.diff(current)
				for ch, ps := range unsubs {
					msg := &Message{Type: "unsubscribe", Channel: ch, ProductIDs: ps}
					if err := conn.WriteJSON(msg); err != nil {
						return fmt.Errorf("could not unsubscribe from channel %q: %w", ch, err)
					}
					slog.Debug("unsubscribed from websocket channel", "channel", ch, "products", ps)
				}
				for ch, ps := range subs {
					msg := &Message{Type: "subscribe", Channel: ch, ProductIDs: ps}
					if err := conn.WriteJSON(msg); err != nil {
						return fmt.Errorf("could not subscribe to channel %q: %w", ch, err)
					}
					slog.Debug("subscribed to websocket channel", "channel", ch, "products", ps)
				}
				current = clone
				slog.Info("websocket is updated to watch channels", "channels", slices.Sorted(maps.Keys(current)))
			}

			msg, err := readMessage(ctx, conn)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("closing the websocket connection", "err", err)
				}
				return err
			}
			handler(msg)
		}
		return context.Cause(ctx)
	}

	c.Go(func(ctx context.Context) {
		for ctx.Err() == nil {
			w.dirty.Store(true)
			if err := dispatch(ctx); err != nil && ctx.Err() == nil {
				lifetime.Sleep(ctx, c.opts.WebsocketRetryInterval)
				continue
			}
			if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Debug("websocket is stopped", "cause", err)
			}
			break
		}
	})

	return w
}
