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

package memdb

import (
	"context"
	"sync"

	"github.com/saloneskills/connect/pkg/common/storage/database"
)

type refresher interface {
	refresh()
}

type entry[T any] struct {
	key string
	ver uint64
	doc T
}

// watcher 单个查询的监听器，compute在持有db.mu时调用，返回查询的当前结果
type watcher[T any] struct {
	db      *DB
	id      uint64
	compute func() []entry[T]

	prev    map[string]entry[T]
	started bool

	mu     sync.Mutex
	queue  []*database.Snapshot[T]
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

// watch 注册监听器并立即生成首个快照
func watch[T any](ctx context.Context, db *DB, compute func() []entry[T]) database.Listener[T] {
	w := &watcher[T]{
		db:      db,
		compute: compute,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	db.mu.Lock()
	db.watcherID++
	w.id = db.watcherID
	db.watchers[w.id] = w
	w.refresh()
	db.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.done:
		}
	}()
	return w
}

func (w *watcher[T]) refresh() {
	entries := w.compute()
	snap := &database.Snapshot[T]{Docs: make([]T, 0, len(entries))}
	cur := make(map[string]entry[T], len(entries))
	for _, e := range entries {
		cur[e.key] = e
	}
	for key, e := range w.prev {
		if _, ok := cur[key]; !ok {
			snap.Changes = append(snap.Changes, database.Change[T]{Kind: database.ChangeRemoved, Doc: e.doc})
		}
	}
	for _, e := range entries {
		snap.Docs = append(snap.Docs, e.doc)
		old, ok := w.prev[e.key]
		switch {
		case !ok:
			snap.Changes = append(snap.Changes, database.Change[T]{Kind: database.ChangeAdded, Doc: e.doc})
		case old.ver != e.ver:
			snap.Changes = append(snap.Changes, database.Change[T]{Kind: database.ChangeModified, Doc: e.doc})
		}
	}
	if w.started && len(snap.Changes) == 0 {
		return
	}
	w.started = true
	w.prev = cur

	w.mu.Lock()
	w.queue = append(w.queue, snap)
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *watcher[T]) Next() (*database.Snapshot[T], error) {
	for {
		select {
		case <-w.done:
			return nil, database.ErrListenerStopped.Wrap()
		default:
		}
		w.mu.Lock()
		if len(w.queue) > 0 {
			snap := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return snap, nil
		}
		w.mu.Unlock()
		select {
		case <-w.done:
			return nil, database.ErrListenerStopped.Wrap()
		case <-w.notify:
		}
	}
}

func (w *watcher[T]) Stop() {
	w.once.Do(func() {
		close(w.done)
		w.db.mu.Lock()
		delete(w.db.watchers, w.id)
		w.db.mu.Unlock()
	})
}
