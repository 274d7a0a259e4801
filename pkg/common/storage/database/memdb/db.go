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

// Package memdb 是database接口的内存实现
// 写入时由DB的时钟充当服务端时间戳，每次写入后同步刷新全部监听器，
// 监听语义与Firestore查询快照保持一致：首个快照全部为Added，之后只推送差异
package memdb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// Option DB选项
type Option func(db *DB)

// WithClock 替换服务端时钟，测试中用于固定时间戳
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// item 存储中的单个文档
// ver在每次写入时递增，用于快照差异计算；seq为插入顺序，时间戳相同时用于稳定排序
type item[T any] struct {
	doc *T
	ver uint64
	seq uint64
}

// DB 内存文档存储
type DB struct {
	mu  sync.Mutex
	now func() time.Time
	ver uint64
	seq uint64

	conversations map[string]*item[model.Conversation]
	messages      map[string]map[string]*item[model.Message]
	typing        map[string]map[string]*item[model.TypingSignal]
	users         map[string]*item[model.UserProfile]
	posts         map[string]*item[model.Post]
	comments      map[string]map[string]*item[model.Comment]
	follows       map[string]map[string]time.Time

	watcherID uint64
	watchers  map[uint64]refresher
}

// New 创建内存存储
func New(opts ...Option) *DB {
	db := &DB{
		now:           time.Now,
		conversations: make(map[string]*item[model.Conversation]),
		messages:      make(map[string]map[string]*item[model.Message]),
		typing:        make(map[string]map[string]*item[model.TypingSignal]),
		users:         make(map[string]*item[model.UserProfile]),
		posts:         make(map[string]*item[model.Post]),
		comments:      make(map[string]map[string]*item[model.Comment]),
		follows:       make(map[string]map[string]time.Time),
		watchers:      make(map[uint64]refresher),
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

func (db *DB) Conversation() database.Conversation { return &conversationDB{db: db} }

func (db *DB) Message() database.Message { return &messageDB{db: db} }

func (db *DB) Typing() database.Typing { return &typingDB{db: db} }

func (db *DB) User() database.User { return &userDB{db: db} }

func (db *DB) Reaction() database.Reaction { return &reactionDB{db: db} }

func (db *DB) Post() database.Post { return &postDB{db: db} }

func (db *DB) Comment() database.Comment { return &commentDB{db: db} }

func (db *DB) Follow() database.Follow { return &followDB{db: db} }

// nextVersion 调用方必须持有db.mu
func (db *DB) nextVersion() uint64 {
	db.ver++
	return db.ver
}

// nextSeq 调用方必须持有db.mu
func (db *DB) nextSeq() uint64 {
	db.seq++
	return db.seq
}

// newID 生成自动文档ID，调用方必须持有db.mu
func (db *DB) newID(prefix string) string {
	return fmt.Sprintf("%s%08d", prefix, db.nextSeq())
}

// commit 写入完成后刷新所有监听器，调用方必须持有db.mu
func (db *DB) commit() {
	for _, w := range db.watchers {
		w.refresh()
	}
}

func sortItems[T any](items []*item[T], less func(a, b *T) int) {
	sort.SliceStable(items, func(i, j int) bool {
		if c := less(items[i].doc, items[j].doc); c != 0 {
			return c < 0
		}
		return items[i].seq < items[j].seq
	})
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func cloneConversation(c *model.Conversation) *model.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	out.UnreadCount = make(map[string]int64, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	return &out
}

func cloneUser(u *model.UserProfile) *model.UserProfile {
	out := *u
	out.Skills = append([]string(nil), u.Skills...)
	return &out
}

func clonePost(p *model.Post) *model.Post {
	out := *p
	out.Reactions = model.CloneReactions(p.Reactions)
	return &out
}

func cloneComment(c *model.Comment) *model.Comment {
	out := *c
	out.Reactions = model.CloneReactions(c.Reactions)
	return &out
}

func values[K comparable, V any](m map[K]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
