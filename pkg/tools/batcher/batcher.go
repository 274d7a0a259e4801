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

// Package batcher 按key聚合数据，满批或定时分发到固定数量的工作协程
// 相同key总是落到同一个协程，保证同一用户的推送顺序
package batcher

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/utils/idutil"
)

var (
	DefaultDataChanSize = 1000
	DefaultSize         = 100
	DefaultBuffer       = 100
	DefaultWorker       = 5
	DefaultInterval     = time.Second
)

type Config struct {
	size     int
	buffer   int
	worker   int
	interval time.Duration
}

type Option func(c *Config)

func WithSize(s int) Option {
	return func(c *Config) {
		c.size = s
	}
}

func WithBuffer(b int) Option {
	return func(c *Config) {
		c.buffer = b
	}
}

func WithWorker(w int) Option {
	return func(c *Config) {
		c.worker = w
	}
}

func WithInterval(i time.Duration) Option {
	return func(c *Config) {
		c.interval = i
	}
}

// Msg 一次分发给工作协程的同key数据
type Msg[T any] struct {
	key       string
	triggerID string
	val       []*T
}

func (m Msg[T]) Key() string { return m.key }

func (m Msg[T]) TriggerID() string { return m.triggerID }

func (m Msg[T]) Val() []*T { return m.val }

type Batcher[T any] struct {
	config *Config

	// Do 处理一批数据，由工作协程调用
	Do func(ctx context.Context, worker int, msg *Msg[T])
	// Key 数据的分组key
	Key func(data *T) string
	// Sharding 为空时按key的哈希取模
	Sharding func(key string) int
	// OnComplete 每次分发结束后调用
	OnComplete func(last *T, total int)

	ctx    context.Context
	cancel context.CancelFunc
	data   chan *T
	chans  []chan *Msg[T]
	wait   sync.WaitGroup
}

func New[T any](opts ...Option) *Batcher[T] {
	config := &Config{
		size:     DefaultSize,
		buffer:   DefaultBuffer,
		worker:   DefaultWorker,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.worker <= 0 {
		config.worker = 1
	}
	b := &Batcher[T]{
		config:     config,
		OnComplete: func(*T, int) {},
		data:       make(chan *T, DefaultDataChanSize),
		chans:      make([]chan *Msg[T], config.worker),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	for i := range b.chans {
		b.chans[i] = make(chan *Msg[T], config.buffer)
	}
	return b
}

func (b *Batcher[T]) Worker() int {
	return b.config.worker
}

func (b *Batcher[T]) Start() error {
	if b.Do == nil {
		return errs.New("Do function is required").Wrap()
	}
	if b.Key == nil {
		return errs.New("Key function is required").Wrap()
	}
	if b.Sharding == nil {
		n := uint32(b.config.worker)
		b.Sharding = func(key string) int {
			h := fnv.New32a()
			_, _ = h.Write([]byte(key))
			return int(h.Sum32() % n)
		}
	}
	b.wait.Add(b.config.worker)
	for i, ch := range b.chans {
		go b.run(i, ch)
	}
	b.wait.Add(1)
	go b.scheduler()
	return nil
}

func (b *Batcher[T]) Put(ctx context.Context, data *T) error {
	if data == nil {
		return errs.New("data can not be nil").Wrap()
	}
	if b.ctx.Err() != nil {
		return errs.New("batcher is closed").Wrap()
	}
	select {
	case <-b.ctx.Done():
		return errs.New("batcher is closed").Wrap()
	case <-ctx.Done():
		return ctx.Err()
	case b.data <- data:
		return nil
	}
}

func (b *Batcher[T]) scheduler() {
	ticker := time.NewTicker(b.config.interval)
	defer func() {
		ticker.Stop()
		for _, ch := range b.chans {
			close(ch)
		}
		b.wait.Done()
	}()

	vals := make(map[string][]*T)
	var (
		count int
		last  *T
	)
	add := func(data *T) {
		key := b.Key(data)
		vals[key] = append(vals[key], data)
		last = data
		count++
	}
	flush := func() {
		if count == 0 {
			return
		}
		b.distribute(vals, count, last)
		vals = make(map[string][]*T)
		count = 0
	}
	for {
		select {
		case <-b.ctx.Done():
			for {
				select {
				case data := <-b.data:
					add(data)
				default:
					flush()
					return
				}
			}
		case data := <-b.data:
			add(data)
			if count >= b.config.size {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (b *Batcher[T]) distribute(vals map[string][]*T, total int, last *T) {
	triggerID := idutil.OperationIDGenerator()
	for key, data := range vals {
		b.chans[b.Sharding(key)] <- &Msg[T]{key: key, triggerID: triggerID, val: data}
	}
	b.OnComplete(last, total)
}

func (b *Batcher[T]) run(worker int, ch <-chan *Msg[T]) {
	defer b.wait.Done()
	for msg := range ch {
		b.do(worker, msg)
	}
}

func (b *Batcher[T]) do(worker int, msg *Msg[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.ZPanic(context.Background(), "batcher Do panic", errs.ErrPanic(r), "key", msg.key)
		}
	}()
	b.Do(context.Background(), worker, msg)
}

// Close 停止接收，已投递的数据全部处理完后返回
func (b *Batcher[T]) Close() {
	b.cancel()
	b.wait.Wait()
}
