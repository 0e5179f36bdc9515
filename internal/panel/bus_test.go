// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var a, b int
	bus.Subscribe(EventPermissionsUpdated, func() { a++ })
	bus.Subscribe(EventPermissionsUpdated, func() { b++ })

	bus.Publish(EventPermissionsUpdated)
	bus.Publish(EventPermissionsUpdated)

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestBusEventsAreIndependent(t *testing.T) {
	bus := NewBus()

	var perms, notifs int
	bus.Subscribe(EventPermissionsUpdated, func() { perms++ })
	bus.Subscribe(EventNotificationCreated, func() { notifs++ })

	bus.Publish(EventNotificationCreated)

	assert.Equal(t, 0, perms)
	assert.Equal(t, 1, notifs)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	var n int
	unsubscribe := bus.Subscribe(EventPermissionsUpdated, func() { n++ })

	bus.Publish(EventPermissionsUpdated)
	unsubscribe()
	bus.Publish(EventPermissionsUpdated)

	assert.Equal(t, 1, n)
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	// Must not panic.
	bus.Publish(EventPermissionsUpdated)
}
