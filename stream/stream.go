// Copyright (c) 2025 BVK Chaitanya

// Package stream implements subscribable live value streams over topics.
package stream

import (
	"fmt"
	"sync/atomic"

	"github.com/bvk/watchlist/lifetime"
	"github.com/visvasity/topic"
)

// Stream is a live feed of values. Subscribers receive values published after
// they subscribe. Value streams drop intermediate values for slow subscribers;
// event streams deliver every value in order.
type Stream[T any] struct {
	topic *topic.Topic[T]

	// limit is the receiver queue limit. Zero means unbounded.
	limit int

	active atomic.Int64
	total  atomic.Int64

	onChange func(delta int64)
}

func New[T any]() *Stream[T] {
	return NewWithHook[T](nil)
}

// NewEvents creates a stream where subscribers receive every published value
// in the publish order.
func NewEvents[T any]() *Stream[T] {
	return &Stream[T]{
		topic: topic.New[T](),
		limit: 0,
	}
}

// NewWithHook creates a stream that reports every change to the number of
// active subscriptions through onChange.
func NewWithHook[T any](onChange func(delta int64)) *Stream[T] {
	return &Stream[T]{
		topic:    topic.New[T](),
		limit:    1,
		onChange: onChange,
	}
}

// Close closes the stream. Subscriptions stop receiving values, but must
// still be disposed.
func (s *Stream[T]) Close() {
	s.topic.Close()
}

// Publish sends a value to all subscribers.
func (s *Stream[T]) Publish(v T) error {
	return s.topic.Send(v)
}

// Last returns the most recently published value.
func (s *Stream[T]) Last() (T, bool) {
	return s.topic.Last()
}

// Active returns the number of subscriptions that are not yet disposed.
func (s *Stream[T]) Active() int64 {
	return s.active.Load()
}

// Total returns the number of subscriptions ever created.
func (s *Stream[T]) Total() int64 {
	return s.total.Load()
}

// Subscribe registers fn to be called with every new value. Callbacks run on
// a private goroutine, one at a time. Returned subscription must be disposed
// to release the goroutine; it must not be disposed from inside fn.
func (s *Stream[T]) Subscribe(fn func(T)) (lifetime.Disposable, error) {
	receiver, err := topic.Subscribe(s.topic, s.limit, false /* includeLast */)
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to stream: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			v, err := receiver.Receive()
			if err != nil {
				return
			}
			fn(v)
		}
	}()

	s.total.Add(1)
	s.changed(1)
	return lifetime.Once(func() {
		receiver.Close()
		<-done
		s.changed(-1)
	}), nil
}

func (s *Stream[T]) changed(delta int64) {
	s.active.Add(delta)
	if s.onChange != nil {
		s.onChange(delta)
	}
}
