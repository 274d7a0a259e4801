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

// Package lru 带成功/失败两种存活时间的LRU，分槽降低锁竞争
package lru

import "github.com/hashicorp/golang-lru/v2/simplelru"

type EvictCallback[K comparable, V any] simplelru.EvictCallback[K, V]

type LRU[K comparable, V any] interface {
	// Get 未命中或已过期时调用fetch，同一个key的并发fetch只执行一次
	Get(key K, fetch func() (V, error)) (V, error)
	Set(key K, value V)
	Del(key K) bool
	Len() int
}

// Target 命中统计
type Target interface {
	IncrGetHit()
	IncrGetSuccess()
	IncrGetFailed()
	IncrDelHit()
	IncrDelNotFound()
}

type EmptyTarget struct{}

func (EmptyTarget) IncrGetHit() {}

func (EmptyTarget) IncrGetSuccess() {}

func (EmptyTarget) IncrGetFailed() {}

func (EmptyTarget) IncrDelHit() {}

func (EmptyTarget) IncrDelNotFound() {}
