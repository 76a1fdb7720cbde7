// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify broadcasts session-state announcements to any number of
// listeners without the publisher knowing who, if anyone, is listening.
//
// Delivery is best effort: no replay, no acknowledgement, and a listener
// whose buffer is full misses the event.
package notify

import (
	"sync"
)

// Reason identifies why a session notification was published.
type Reason string

const (
	// ReasonTokenExpired is published when a stored credential's expiry has passed.
	ReasonTokenExpired Reason = "token_expired"
	// ReasonUnauthorized is published when the server rejects a request with 401.
	ReasonUnauthorized Reason = "unauthorized"
	// ReasonForbiddenNoToken is published on a 403 while no credential is stored.
	ReasonForbiddenNoToken Reason = "forbidden_no_token"
)

// Event is a session notification.
type Event struct {
	Reason  Reason `json:"reason"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	// Path is the request path that produced the event.
	Path string `json:"path,omitempty"`
}

// Publisher is the side of the bus the request layer depends on.
type Publisher interface {
	Publish(Event)
}

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 16

// Bus is an in-process publish/subscribe channel for Events.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

// Default is the process-wide bus for listeners that live outside any
// particular client. Clients still receive it by injection.
var Default = New()

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Publish delivers e to every current subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]chan Event, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Subscriber is behind; drop.
		}
	}
}

// Subscribe returns a channel of future events and an unsubscribe function.
// The channel is never closed.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subscribers {
				if sub == ch {
					b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
					break
				}
			}
		})
	}

	return ch, unsub
}

// Recorder is a Publisher that keeps every event. It is meant for tests and
// for callers that want to inspect what a single call announced.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records e.
func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reasons returns the reasons of the recorded events in order.
func (r *Recorder) Reasons() []Reason {
	events := r.Events()
	reasons := make([]Reason, len(events))
	for i, e := range events {
		reasons[i] = e.Reason
	}
	return reasons
}

// Multi fans a publish out to several publishers.
type Multi []Publisher

// Publish delivers e to each publisher in order.
func (m Multi) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
