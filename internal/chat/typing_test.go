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

package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/database/memdb"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/tools/debounce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTypingFresh(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sig := &model.TypingSignal{IsTyping: true, UpdatedAt: at}
	tests := []struct {
		name string
		sig  *model.TypingSignal
		now  time.Time
		want bool
	}{
		{name: "fresh", sig: sig, now: at.Add(4 * time.Second), want: true},
		{name: "stale", sig: sig, now: at.Add(6 * time.Second), want: false},
		{name: "boundary", sig: sig, now: at.Add(DefaultTypingStaleness), want: false},
		{name: "stopped", sig: &model.TypingSignal{IsTyping: false, UpdatedAt: at}, now: at.Add(time.Second), want: false},
		{name: "missing", sig: nil, now: at, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTypingFresh(tt.sig, tt.now, DefaultTypingStaleness))
		})
	}
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	was := !m.stopped
	m.stopped = true
	return was
}

type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) debounce.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *manualTimers) fireLatest() {
	m.mu.Lock()
	var t *manualTimer
	for i := len(m.timers) - 1; i >= 0; i-- {
		if !m.timers[i].stopped {
			t = m.timers[i]
			t.stopped = true
			break
		}
	}
	m.mu.Unlock()
	if t != nil {
		t.f()
	}
}

type recordingTypingDB struct {
	database.Typing
	mu     sync.Mutex
	writes []bool
}

func (r *recordingTypingDB) Set(ctx context.Context, conversationID string, userID string, isTyping bool) error {
	r.mu.Lock()
	r.writes = append(r.writes, isTyping)
	r.mu.Unlock()
	return r.Typing.Set(ctx, conversationID, userID, isTyping)
}

func (r *recordingTypingDB) Writes() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.writes...)
}

func TestTypingPublisherDebounce(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	typingDB := &recordingTypingDB{Typing: db.Typing()}
	timers := &manualTimers{}
	cid := ConversationID(userA, userB)
	pub := NewTypingPublisher(ctx, typingDB, cid, userA, DefaultTypingDebounce, debounce.WithAfterFunc(timers.AfterFunc))

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Keystroke(ctx))
	}
	assert.Equal(t, []bool{true}, typingDB.Writes())

	timers.fireLatest()
	assert.Equal(t, []bool{true, false}, typingDB.Writes())

	require.NoError(t, pub.Keystroke(ctx))
	assert.Equal(t, []bool{true, false, true}, typingDB.Writes())
	pub.Close(ctx)
	assert.Equal(t, []bool{true, false, true, false}, typingDB.Writes())

	// 空闲时关闭不写入
	pub.Close(ctx)
	timers.fireLatest()
	assert.Len(t, typingDB.Writes(), 4)
}

func TestTypingWatcherExpiresStaleSignal(t *testing.T) {
	ctx := context.Background()
	db := memdb.New()
	cid := ConversationID(userA, userB)
	w := &TypingWatcher{typingDB: db.Typing(), window: 150 * time.Millisecond, now: time.Now}

	states := make(chan bool, 8)
	sub := w.Subscribe(ctx, cid, userA, TypingHandler{
		OnTyping: func(ctx context.Context, typing bool) { states <- typing },
	})
	defer sub.Unsubscribe()
	assert.False(t, recv(t, states))

	// 对方掉线前留下的true在窗口过后视为未输入
	require.NoError(t, db.Typing().Set(ctx, cid, userA, true))
	assert.True(t, recv(t, states))
	start := time.Now()
	assert.False(t, recv(t, states))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, db.Typing().Set(ctx, cid, userA, true))
	assert.True(t, recv(t, states))
	require.NoError(t, db.Typing().Set(ctx, cid, userA, false))
	assert.False(t, recv(t, states))
	assertNoRecv(t, states, 200*time.Millisecond)

	// 其他用户的信号不影响
	require.NoError(t, db.Typing().Set(ctx, cid, userB, true))
	assertNoRecv(t, states, 50*time.Millisecond)
}

func TestSessionPublishesTyping(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	states := make(chan bool, 8)
	viewer, err := svc.OpenSession(ctx, userB, userA, SessionHandler{
		OnTyping: func(ctx context.Context, typing bool) { states <- typing },
	})
	require.NoError(t, err)
	defer viewer.Close(ctx)
	assert.False(t, recv(t, states))

	typist, err := svc.OpenSession(ctx, userA, userB, SessionHandler{})
	require.NoError(t, err)
	require.NoError(t, typist.Keystroke(ctx))
	require.NoError(t, typist.Keystroke(ctx))
	assert.True(t, recv(t, states))

	typist.Close(ctx)
	assert.False(t, recv(t, states))
}
