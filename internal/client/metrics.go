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

package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// attemptsTotal counts network dispatches, including guest retries.
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "client",
			Name:      "attempts_total",
			Help:      "Total number of requests sent to the API",
		},
		[]string{"method", "auth"},
	)

	// guestRetriesTotal counts 401s answered by a guest retry.
	guestRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "client",
			Name:      "guest_retries_total",
			Help:      "Total number of public reads retried without a credential after a 401",
		},
	)

	// sessionEventsTotal counts published session events by reason.
	sessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "client",
			Name:      "session_events_total",
			Help:      "Total number of session events published",
		},
		[]string{"reason"},
	)

	// requestDuration observes logical calls end to end.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of logical API calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)
)

func authLabel(authorized bool) string {
	if authorized {
		return "bearer"
	}
	return "guest"
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if status := StatusOf(err); status != 0 {
		return "api_error"
	}
	return "transport_error"
}
