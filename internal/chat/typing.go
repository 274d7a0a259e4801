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
	"time"

	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/tools/debounce"
)

// IsTypingFresh 输入信号为true且更新时间在window以内才视为正在输入
// 对方断线后遗留的true信号会在window之后自然失效
func IsTypingFresh(sig *model.TypingSignal, now time.Time, window time.Duration) bool {
	if sig == nil || !sig.IsTyping {
		return false
	}
	return now.Sub(sig.UpdatedAt) < window
}

// TypingPublisher 发布自己的输入状态
// 一段连续输入只在开始时写一次true，停止输入delay之后写一次false
type TypingPublisher struct {
	mu             sync.Mutex
	ctx            context.Context
	typingDB       database.Typing
	conversationID string
	userID         string
	debouncer      *debounce.Debouncer
}

// NewTypingPublisher ctx用于尾沿的false写入，通常是连接或会话的生命周期ctx
func NewTypingPublisher(ctx context.Context, typingDB database.Typing, conversationID, userID string, delay time.Duration, opts ...debounce.Option) *TypingPublisher {
	p := &TypingPublisher{
		ctx:            ctx,
		typingDB:       typingDB,
		conversationID: conversationID,
		userID:         userID,
	}
	p.debouncer = debounce.New(delay, p.settle, opts...)
	return p
}

// Keystroke 记录一次按键
func (p *TypingPublisher) Keystroke(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.debouncer.Touch() {
		return nil
	}
	return p.typingDB.Set(ctx, p.conversationID, p.userID, true)
}

func (p *TypingPublisher) settle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debouncer.Pending() {
		// 新的一段输入已经开始并写过true
		return
	}
	if err := p.typingDB.Set(p.ctx, p.conversationID, p.userID, false); err != nil {
		log.ZWarn(p.ctx, "reset typing failed", err, "conversationID", p.conversationID, "userID", p.userID)
	}
}

// Close 取消计时；输入尚未结束时立即写false
func (p *TypingPublisher) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.debouncer.Stop() {
		return
	}
	if err := p.typingDB.Set(ctx, p.conversationID, p.userID, false); err != nil {
		log.ZWarn(ctx, "reset typing on close failed", err, "conversationID", p.conversationID, "userID", p.userID)
	}
}

// TypingHandler 对方输入状态回调，OnTyping只在状态变化时调用（第一个快照总会调用）
type TypingHandler struct {
	OnTyping func(ctx context.Context, typing bool)
	OnError  func(ctx context.Context, err error)
}

// TypingWatcher 监听对方的输入状态
type TypingWatcher struct {
	typingDB database.Typing
	window   time.Duration
	now      func() time.Time
}

// Subscribe 监听peerID在会话中的输入状态
// 信号在window之后过期，过期时即使没有新的快照也会回调false
func (w *TypingWatcher) Subscribe(ctx context.Context, conversationID string, peerID string, h TypingHandler) *Subscription {
	return startSubscription(ctx, func(ctx context.Context) {
		onError := func(err error) {
			log.ZWarn(ctx, "typing listener failed", err, "conversationID", conversationID, "peerID", peerID)
			if h.OnError != nil {
				h.OnError(ctx, err)
			}
		}
		lis, err := w.typingDB.Watch(ctx, conversationID, peerID)
		if err != nil {
			onError(err)
			return
		}
		snaps := make(chan *model.TypingSignal)
		errCh := make(chan error, 1)
		go func() {
			defer close(snaps)
			for {
				snap, err := lis.Next()
				if err != nil {
					errCh <- err
					return
				}
				var sig *model.TypingSignal
				if len(snap.Docs) > 0 {
					sig = snap.Docs[0]
				}
				select {
				case snaps <- sig:
				case <-ctx.Done():
					return
				}
			}
		}()
		defer lis.Stop()

		var (
			typing  bool
			emitted bool
			expiry  *time.Timer
			expireC <-chan time.Time
		)
		emit := func(v bool) {
			if emitted && v == typing {
				return
			}
			typing, emitted = v, true
			if h.OnTyping != nil {
				h.OnTyping(ctx, v)
			}
		}
		stopExpiry := func() {
			if expiry != nil {
				expiry.Stop()
				expiry, expireC = nil, nil
			}
		}
		defer stopExpiry()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-snaps:
				if !ok {
					select {
					case err := <-errCh:
						if ctx.Err() == nil && !database.IsListenerStopped(err) {
							onError(err)
						}
					default:
					}
					return
				}
				stopExpiry()
				now := w.now()
				fresh := IsTypingFresh(sig, now, w.window)
				if fresh {
					expiry = time.NewTimer(sig.UpdatedAt.Add(w.window).Sub(now))
					expireC = expiry.C
				}
				emit(fresh)
			case <-expireC:
				expiry, expireC = nil, nil
				emit(false)
			}
		}
	})
}
