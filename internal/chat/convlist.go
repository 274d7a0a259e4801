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
	"time"

	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"golang.org/x/sync/errgroup"
)

// ConversationView 会话列表中的一行
type ConversationView struct {
	ConversationID string             `json:"conversationID"`
	Peer           *model.UserProfile `json:"peer"`
	LastMessage    *model.LastMessage `json:"lastMessage,omitempty"`
	Unread         int64              `json:"unread"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ConversationHandler 会话列表回调，每个快照回调一次完整列表
type ConversationHandler struct {
	OnUpdate func(ctx context.Context, views []*ConversationView)
	OnError  func(ctx context.Context, err error)
}

// ConversationList 会话列表聚合
type ConversationList struct {
	convDB      database.Conversation
	profiles    ProfileGetter
	concurrency int
}

// Resolve 并发解析每个会话对方的资料
// 结果保持convs的顺序；对方资料读取失败的会话被丢弃，不影响其余会话
func (l *ConversationList) Resolve(ctx context.Context, userID string, convs []*model.Conversation) ([]*ConversationView, error) {
	views := make([]*ConversationView, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, conv := range convs {
		peerID, ok := conv.Counterpart(userID)
		if !ok {
			log.ZWarn(ctx, "conversation without counterpart dropped", nil, "conversationID", conv.ID, "userID", userID)
			continue
		}
		g.Go(func() error {
			peer, err := l.profiles.GetProfile(gctx, peerID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.ZWarn(gctx, "resolve counterpart failed, conversation dropped", err, "conversationID", conv.ID, "peerID", peerID)
				return nil
			}
			views[i] = &ConversationView{
				ConversationID: conv.ID,
				Peer:           peer,
				LastMessage:    conv.LastMessage,
				Unread:         conv.Unread(userID),
				UpdatedAt:      conv.UpdatedAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res := make([]*ConversationView, 0, len(views))
	for _, v := range views {
		if v != nil {
			res = append(res, v)
		}
	}
	return res, nil
}

// Subscribe 监听userID的会话列表，按updatedAt倒序
func (l *ConversationList) Subscribe(ctx context.Context, userID string, h ConversationHandler) *Subscription {
	return startSubscription(ctx, func(ctx context.Context) {
		onError := func(err error) {
			log.ZWarn(ctx, "conversation listener failed", err, "userID", userID)
			if h.OnError != nil {
				h.OnError(ctx, err)
			}
		}
		lis, err := l.convDB.WatchByUser(ctx, userID)
		if err != nil {
			onError(err)
			return
		}
		consume(ctx, lis, func(snap *database.Snapshot[*model.Conversation]) {
			views, err := l.Resolve(ctx, userID, snap.Docs)
			if err != nil {
				// 只有ctx取消才会失败，监听随即结束
				return
			}
			if h.OnUpdate != nil {
				h.OnUpdate(ctx, views)
			}
		}, onError)
	})
}
