/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package xstatic

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the request instrumentation shared by all listeners of a ListenerSet. Each ListenerSet owns its own
// prometheus.Registry.
type Metrics struct {
	Registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "xstatic",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served, by listener and status code.",
			},
			[]string{"listener", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "xstatic",
				Name:      "request_duration_seconds",
				Help:      "The HTTP request latencies in seconds, by listener.",
			},
			[]string{"listener"},
		),
	}

	metrics.Registry.MustRegister(metrics.requests, metrics.duration)

	return metrics
}

// Wrap instruments handler with the counters of the named listener.
func (metrics *Metrics) Wrap(listener string, handler http.Handler) http.Handler {
	labels := prometheus.Labels{"listener": listener}

	return promhttp.InstrumentHandlerDuration(metrics.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(metrics.requests.MustCurryWith(labels), handler))
}

// Handler exposes the registry in the prometheus text format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
}
