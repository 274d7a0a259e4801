// Copyright © 2024 Salone Skills Connect. All rights reserved.
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

package prommetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessageSentCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "connect_message_sent_total",
		Help: "The number of chat messages sent, by message type",
	}, []string{"type"})
	NotificationCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "connect_message_notification_total",
		Help: "The number of inbound-message notifications raised for mounted conversations",
	})
	SeenMarkedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "connect_message_seen_total",
		Help: "The number of messages marked as seen",
	})
	ReactionToggledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "connect_reaction_toggled_total",
		Help: "The number of reaction toggles, by target kind",
	}, []string{"kind"})
	PostCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "connect_post_created_total",
		Help: "The number of feed posts created",
	})
	OfflinePushCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "connect_offline_push_total",
		Help: "The number of offline push attempts, by result",
	}, []string{"result"})
	OnlineUserGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "connect_online_user_num",
		Help: "The number of users holding a gateway connection",
	})
	HttpCallCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "connect_http_call_total",
		Help: "The number of REST calls, by path and status",
	}, []string{"path", "status"})
	LocalCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "connect_local_cache_total",
		Help: "Local cache lookups and deletes, by cache name and result",
	}, []string{"name", "result"})
)

// NewRegistry 注册进程与业务指标
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessageSentCounter,
		NotificationCounter,
		SeenMarkedCounter,
		ReactionToggledCounter,
		PostCreatedCounter,
		OfflinePushCounter,
		OnlineUserGauge,
		HttpCallCounter,
		LocalCacheCounter,
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
