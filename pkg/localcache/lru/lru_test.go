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
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheTarget struct {
	getHit      atomic.Int64
	getSuccess  atomic.Int64
	getFailed   atomic.Int64
	delHit      atomic.Int64
	delNotFound atomic.Int64
}

func (r *cacheTarget) IncrGetHit() { r.getHit.Add(1) }

func (r *cacheTarget) IncrGetSuccess() { r.getSuccess.Add(1) }

func (r *cacheTarget) IncrGetFailed() { r.getFailed.Add(1) }

func (r *cacheTarget) IncrDelHit() { r.delHit.Add(1) }

func (r *cacheTarget) IncrDelNotFound() { r.delNotFound.Add(1) }

func TestLazyLRUTTL(t *testing.T) {
	target := &cacheTarget{}
	now := time.Unix(1700000000, 0)
	l := NewLazyLRU[string, string](10, time.Minute, time.Second, target, nil)
	l.now = func() time.Time { return now }

	var calls int
	fetch := func() (string, error) {
		calls++
		return fmt.Sprintf("v%d", calls), nil
	}
	v, err := l.Get("user_aaa", fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	v, _ = l.Get("user_aaa", fetch)
	assert.Equal(t, "v1", v)

	now = now.Add(2 * time.Minute)
	v, _ = l.Get("user_aaa", fetch)
	assert.Equal(t, "v2", v)
	assert.EqualValues(t, 1, target.getHit.Load())
	assert.EqualValues(t, 2, target.getSuccess.Load())
}

func TestLazyLRUCachesFailureBriefly(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLazyLRU[string, string](10, time.Minute, time.Second, nil, nil)
	l.now = func() time.Time { return now }
	boom := errors.New("boom")
	var calls int
	fetch := func() (string, error) {
		calls++
		return "", boom
	}
	_, err := l.Get("k", fetch)
	assert.ErrorIs(t, err, boom)
	_, err = l.Get("k", fetch)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Second)
	_, _ = l.Get("k", fetch)
	assert.Equal(t, 2, calls)
}

func TestLazyLRUDelAndEvict(t *testing.T) {
	var evicted []string
	target := &cacheTarget{}
	l := NewLazyLRU[string, int](2, time.Minute, time.Second, target, func(key string, value int) {
		evicted = append(evicted, key)
	})
	l.Set("a", 1)
	l.Set("b", 2)
	l.Set("c", 3)
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, 2, l.Len())

	assert.True(t, l.Del("b"))
	assert.False(t, l.Del("b"))
	assert.EqualValues(t, 1, target.delHit.Load())
	assert.EqualValues(t, 1, target.delNotFound.Load())
}

func TestSlotLRUConcurrentFetchOnce(t *testing.T) {
	target := &cacheTarget{}
	l := NewSlotLRU[string, string](16, func(k string) uint64 {
		h := fnv.New64a()
		h.Write([]byte(k))
		return h.Sum64()
	}, func() LRU[string, string] {
		return NewLazyLRU[string, string](100, time.Minute, time.Second, target, nil)
	})

	var fetches atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key_%d", i%20)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v, err := l.Get(key, func() (string, error) {
					fetches.Add(1)
					return "value_" + key, nil
				})
				if assert.NoError(t, err) {
					assert.Equal(t, "value_"+key, v)
				}
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 20, fetches.Load())
	assert.Equal(t, 20, l.Len())
}
