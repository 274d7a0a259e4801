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

	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// SessionHandler 一个打开的会话视图的全部回调
// 回调来自不同的监听协程，实现方需要自行串行化输出
type SessionHandler struct {
	OnMessages   func(ctx context.Context, update *MessageUpdate)
	OnNotify     func(ctx context.Context, msg *model.Message)
	OnTyping     func(ctx context.Context, typing bool)
	OnPeerStatus func(ctx context.Context, peer *model.UserProfile)
	OnNotice     func(ctx context.Context, notice Notice)
}

func (h *SessionHandler) notice(ctx context.Context, op string, err error, subscription bool) {
	if h.OnNotice != nil {
		h.OnNotice(ctx, NewNotice(op, err, subscription))
	}
}

// Session 一个打开的会话视图
// 打开时清零一次未读，之后监听消息、对方输入状态和对方在线状态，每次消息物化后标记已读
type Session struct {
	conversationID string
	userID         string
	peerID         string
	peer           *model.UserProfile

	cancel context.CancelFunc
	subs   []*Subscription
	typing *TypingPublisher

	closeOnce sync.Once
}

// OpenSession 打开与peerID的会话视图，校验失败时不会建立任何监听
func (s *Service) OpenSession(ctx context.Context, userID, peerID string, h SessionHandler) (*Session, error) {
	conversationID, peer, err := s.OpenConversation(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		conversationID: conversationID,
		userID:         userID,
		peerID:         peerID,
		peer:           peer,
		cancel:         cancel,
		typing:         NewTypingPublisher(ctx, s.db.Typing, conversationID, userID, s.conf.TypingDebounce),
	}

	if n, err := s.readState.ClearUnread(ctx, conversationID, userID); err != nil {
		log.ZWarn(ctx, "clear unread failed", err, "conversationID", conversationID, "userID", userID)
		h.notice(ctx, OpClearUnread, err, false)
	} else if n > 0 {
		log.ZDebug(ctx, "unread cleared", "conversationID", conversationID, "userID", userID, "count", n)
	}

	sess.subs = append(sess.subs, s.stream.Subscribe(ctx, conversationID, userID, MessageHandler{
		OnUpdate: func(ctx context.Context, update *MessageUpdate) {
			if h.OnMessages != nil {
				h.OnMessages(ctx, update)
			}
			if _, err := s.readState.MarkSeen(ctx, conversationID, userID, update.Messages); err != nil && ctx.Err() == nil {
				log.ZWarn(ctx, "mark seen failed", err, "conversationID", conversationID, "userID", userID)
				h.notice(ctx, OpMarkSeen, err, false)
			}
		},
		OnNotify: h.OnNotify,
		OnError: func(ctx context.Context, err error) {
			h.notice(ctx, OpSubscribe, err, true)
		},
	}))

	sess.subs = append(sess.subs, s.typing.Subscribe(ctx, conversationID, peerID, TypingHandler{
		OnTyping: h.OnTyping,
		OnError: func(ctx context.Context, err error) {
			h.notice(ctx, OpSubscribe, err, true)
		},
	}))

	sess.subs = append(sess.subs, startSubscription(ctx, func(ctx context.Context) {
		onError := func(err error) {
			log.ZWarn(ctx, "peer status listener failed", err, "peerID", peerID)
			h.notice(ctx, OpSubscribe, err, true)
		}
		lis, err := s.db.User.Watch(ctx, peerID)
		if err != nil {
			onError(err)
			return
		}
		consume(ctx, lis, func(snap *database.Snapshot[*model.UserProfile]) {
			if len(snap.Docs) == 0 || h.OnPeerStatus == nil {
				return
			}
			h.OnPeerStatus(ctx, snap.Docs[0])
		}, onError)
	}))

	log.ZDebug(ctx, "conversation session opened", "conversationID", conversationID, "userID", userID, "peerID", peerID)
	return sess, nil
}

func (sess *Session) ConversationID() string { return sess.conversationID }

func (sess *Session) PeerID() string { return sess.peerID }

func (sess *Session) Peer() *model.UserProfile { return sess.peer }

// Keystroke 本端输入一个字符
func (sess *Session) Keystroke(ctx context.Context) error {
	return sess.typing.Keystroke(ctx)
}

// Close 关闭会话视图，撤销全部监听；仍在输入时补写一次isTyping=false
func (sess *Session) Close(ctx context.Context) {
	sess.closeOnce.Do(func() {
		sess.typing.Close(ctx)
		for _, sub := range sess.subs {
			sub.Unsubscribe()
		}
		sess.cancel()
		log.ZDebug(ctx, "conversation session closed", "conversationID", sess.conversationID, "userID", sess.userID)
	})
}

// Done 全部监听协程退出后关闭
func (sess *Session) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for _, sub := range sess.subs {
			<-sub.Done()
		}
		close(done)
	}()
	return done
}

// SessionSlot 同一个视图上至多一个打开的会话
// 以不同的对方重新打开时先关闭前一个会话，相同的对方直接复用
type SessionSlot struct {
	mu  sync.Mutex
	cur *Session
}

func (slot *SessionSlot) Open(ctx context.Context, s *Service, userID, peerID string, h SessionHandler) (*Session, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.cur != nil {
		if slot.cur.userID == userID && slot.cur.peerID == peerID {
			return slot.cur, nil
		}
		slot.cur.Close(ctx)
		slot.cur = nil
	}
	sess, err := s.OpenSession(ctx, userID, peerID, h)
	if err != nil {
		return nil, err
	}
	slot.cur = sess
	return sess, nil
}

// Current 当前打开的会话，没有时返回nil
func (slot *SessionSlot) Current() *Session {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.cur
}

// Close 关闭当前会话
func (slot *SessionSlot) Close(ctx context.Context) {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.cur != nil {
		slot.cur.Close(ctx)
		slot.cur = nil
	}
}
