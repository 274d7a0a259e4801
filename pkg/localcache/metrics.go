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

package localcache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/localcache/lru"
)

// NewMetricsTarget 命中统计写入prometheus，name区分不同缓存
func NewMetricsTarget(name string) lru.Target {
	c := prommetrics.LocalCacheCounter
	return &metricsTarget{
		hit:         c.WithLabelValues(name, "hit"),
		success:     c.WithLabelValues(name, "success"),
		failed:      c.WithLabelValues(name, "failed"),
		delHit:      c.WithLabelValues(name, "del_hit"),
		delNotFound: c.WithLabelValues(name, "del_not_found"),
	}
}

type metricsTarget struct {
	hit, success, failed, delHit, delNotFound prometheus.Counter
}

func (m *metricsTarget) IncrGetHit() { m.hit.Inc() }

func (m *metricsTarget) IncrGetSuccess() { m.success.Inc() }

func (m *metricsTarget) IncrGetFailed() { m.failed.Inc() }

func (m *metricsTarget) IncrDelHit() { m.delHit.Inc() }

func (m *metricsTarget) IncrDelNotFound() { m.delNotFound.Inc() }
