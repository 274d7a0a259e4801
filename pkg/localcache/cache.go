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

// Package localcache 进程内缓存，位于redis缓存之前
// 其他进程修改数据后通过redis频道广播被删除的key，本进程订阅后清理
package localcache

import (
	"context"
	"hash/fnv"

	"github.com/saloneskills/connect/pkg/localcache/lru"
)

type Cache[V any] interface {
	Get(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error)
	// Del 删除本地缓存，不广播
	Del(ctx context.Context, key ...string)
	Len() int
}

func stringHash(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func New[V any](opts ...Option) Cache[V] {
	opt := defaultOption()
	for _, o := range opts {
		o(opt)
	}
	create := func() lru.LRU[string, V] {
		return lru.NewLazyLRU[string, V](opt.slotSize, opt.successTTL, opt.failedTTL, opt.target, nil)
	}
	c := &cache[V]{}
	if opt.slotNum <= 1 {
		c.local = create()
	} else {
		c.local = lru.NewSlotLRU[string, V](opt.slotNum, stringHash, create)
	}
	return c
}

type cache[V any] struct {
	local lru.LRU[string, V]
}

func (c *cache[V]) Get(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	return c.local.Get(key, func() (V, error) {
		return fetch(ctx)
	})
}

func (c *cache[V]) Del(ctx context.Context, key ...string) {
	for _, k := range key {
		c.local.Del(k)
	}
}

func (c *cache[V]) Len() int {
	return c.local.Len()
}
