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

package lru

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type lazyItem[V any] struct {
	lock    sync.Mutex
	expires time.Time
	err     error
	value   V
}

// NewLazyLRU 访问时检查过期，失败结果按failedTTL缓存
func NewLazyLRU[K comparable, V any](size int, successTTL, failedTTL time.Duration, target Target, onEvict EvictCallback[K, V]) *LazyLRU[K, V] {
	var cb simplelru.EvictCallback[K, *lazyItem[V]]
	if onEvict != nil {
		cb = func(key K, item *lazyItem[V]) {
			onEvict(key, item.value)
		}
	}
	core, err := simplelru.NewLRU[K, *lazyItem[V]](size, cb)
	if err != nil {
		panic(err)
	}
	if target == nil {
		target = EmptyTarget{}
	}
	return &LazyLRU[K, V]{
		core:       core,
		successTTL: successTTL,
		failedTTL:  failedTTL,
		target:     target,
		now:        time.Now,
	}
}

type LazyLRU[K comparable, V any] struct {
	lock       sync.Mutex
	core       *simplelru.LRU[K, *lazyItem[V]]
	successTTL time.Duration
	failedTTL  time.Duration
	target     Target
	now        func() time.Time
}

func (x *LazyLRU[K, V]) fresh(item *lazyItem[V]) bool {
	return !item.expires.IsZero() && item.expires.After(x.now())
}

func (x *LazyLRU[K, V]) Get(key K, fetch func() (V, error)) (V, error) {
	x.lock.Lock()
	item, ok := x.core.Get(key)
	if !ok {
		item = &lazyItem[V]{}
		x.core.Add(key, item)
	}
	x.lock.Unlock()

	item.lock.Lock()
	defer item.lock.Unlock()
	if x.fresh(item) {
		x.target.IncrGetHit()
		return item.value, item.err
	}
	item.value, item.err = fetch()
	if item.err == nil {
		item.expires = x.now().Add(x.successTTL)
		x.target.IncrGetSuccess()
	} else {
		item.expires = x.now().Add(x.failedTTL)
		x.target.IncrGetFailed()
	}
	return item.value, item.err
}

func (x *LazyLRU[K, V]) Set(key K, value V) {
	x.lock.Lock()
	defer x.lock.Unlock()
	x.core.Add(key, &lazyItem[V]{value: value, expires: x.now().Add(x.successTTL)})
}

func (x *LazyLRU[K, V]) Del(key K) bool {
	x.lock.Lock()
	ok := x.core.Remove(key)
	x.lock.Unlock()
	if ok {
		x.target.IncrDelHit()
	} else {
		x.target.IncrDelNotFound()
	}
	return ok
}

func (x *LazyLRU[K, V]) Len() int {
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.core.Len()
}
