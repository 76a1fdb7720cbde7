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

package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := New()
	assert.NotPanics(t, func() {
		bus.Publish(Event{Reason: ReasonUnauthorized, Status: 401})
	})
}

func TestBus_FanOut(t *testing.T) {
	bus := New()
	first, unsubFirst := bus.Subscribe()
	defer unsubFirst()
	second, unsubSecond := bus.Subscribe()
	defer unsubSecond()

	want := Event{Reason: ReasonTokenExpired, Status: 401, Message: "session expired", Path: "/posts"}
	bus.Publish(want)

	assert.Equal(t, want, <-first)
	assert.Equal(t, want, <-second)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	ch, unsub := bus.Subscribe()
	other, unsubOther := bus.Subscribe()
	defer unsubOther()

	unsub()
	unsub()

	bus.Publish(Event{Reason: ReasonUnauthorized})
	select {
	case e := <-ch:
		t.Fatalf("unexpected event after unsubscribe: %+v", e)
	default:
	}
	require.Len(t, other, 1, "remaining subscriber still receives")
}

func TestBus_NoReplay(t *testing.T) {
	bus := New()
	bus.Publish(Event{Reason: ReasonUnauthorized})

	ch, unsub := bus.Subscribe()
	defer unsub()

	select {
	case e := <-ch:
		t.Fatalf("late subscriber received %+v", e)
	default:
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := New()
	_, unsub := bus.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			bus.Publish(Event{Reason: ReasonUnauthorized, Status: 401})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
