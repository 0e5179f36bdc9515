// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import "sync"

// Broadcast event names. Events carry no payload; subscribers re-derive
// their state themselves. Permission changes and notification changes
// are independent channels.
const (
	EventPermissionsUpdated  = "permissions.updated"
	EventNotificationCreated = "notification.created"
)

// Bus is an in-process, payload-less broadcast channel.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]func()
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]func())}
}

// Subscribe registers a handler for an event and returns an unsubscribe
// function. Handlers run synchronously on the publishing goroutine.
func (b *Bus) Subscribe(event string, handler func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[event] == nil {
		b.handlers[event] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.handlers[event][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[event], id)
	}
}

// Publish fires an event to all current subscribers.
func (b *Bus) Publish(event string) {
	b.mu.Lock()
	handlers := make([]func(), 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}
