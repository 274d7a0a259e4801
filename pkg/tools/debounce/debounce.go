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

// Package debounce 提供尾沿触发的去抖器
// 一段连续触发（burst）的第一次Touch返回true，最后一次Touch之后静默delay时间才执行回调
package debounce

import (
	"sync"
	"time"
)

// Timer 可停止的定时器，*time.Timer满足该接口
type Timer interface {
	Stop() bool
}

// AfterFunc 定时器工厂，签名与time.AfterFunc一致
type AfterFunc func(d time.Duration, f func()) Timer

func defaultAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option 去抖器选项
type Option func(d *Debouncer)

// WithAfterFunc 替换定时器工厂，测试时用于手动触发
func WithAfterFunc(fn AfterFunc) Option {
	return func(d *Debouncer) {
		d.afterFunc = fn
	}
}

// Debouncer 尾沿去抖器，可并发调用
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	fn        func()
	afterFunc AfterFunc
	timer     Timer
	pending   bool
	gen       uint64
}

// New 创建去抖器，fn在每个burst结束后执行一次
func New(delay time.Duration, fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:     delay,
		fn:        fn,
		afterFunc: defaultAfterFunc,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Touch 记录一次触发并重新计时
// 返回值表示本次触发是否开启了一个新的burst
func (d *Debouncer) Touch() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	first := !d.pending
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.afterFunc(d.delay, func() {
		d.fire(gen)
	})
	return first
}

// fire 过期的定时器（已被后续Touch或Stop取代）不执行回调
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Pending 是否处于一个尚未结束的burst中
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop 取消计时，不执行回调
// 返回值表示调用时是否处于burst中
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	was := d.pending
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return was
}
