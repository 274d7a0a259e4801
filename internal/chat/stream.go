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

	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// MessageUpdate 一次消息快照的物化结果
// Messages为会话的完整消息列表（createdAt升序）；Initial标记监听建立后的第一个快照；
// Added为本次快照新增的消息，第一个快照中为空
type MessageUpdate struct {
	ConversationID string           `json:"conversationID"`
	Messages       []*model.Message `json:"messages"`
	Initial        bool             `json:"initial"`
	Added          []*model.Message `json:"added,omitempty"`
}

// MessageHandler 消息监听回调
// OnNotify对每条对方发来的新消息恰好调用一次，第一个快照中已有的消息不会触发
type MessageHandler struct {
	OnUpdate func(ctx context.Context, update *MessageUpdate)
	OnNotify func(ctx context.Context, msg *model.Message)
	OnError  func(ctx context.Context, err error)
}

type MessageStream struct {
	msgDB database.Message
}

// Subscribe 监听会话消息，userID为当前查看者
func (s *MessageStream) Subscribe(ctx context.Context, conversationID string, userID string, h MessageHandler) *Subscription {
	return startSubscription(ctx, func(ctx context.Context) {
		onError := func(err error) {
			log.ZWarn(ctx, "message listener failed", err, "conversationID", conversationID, "userID", userID)
			if h.OnError != nil {
				h.OnError(ctx, err)
			}
		}
		lis, err := s.msgDB.Watch(ctx, conversationID)
		if err != nil {
			onError(err)
			return
		}
		initial := true
		consume(ctx, lis, func(snap *database.Snapshot[*model.Message]) {
			update := &MessageUpdate{
				ConversationID: conversationID,
				Messages:       snap.Docs,
				Initial:        initial,
			}
			var inbound []*model.Message
			if !initial {
				update.Added = snap.Added()
				for _, msg := range update.Added {
					if msg.SenderID != userID {
						inbound = append(inbound, msg)
					}
				}
			}
			initial = false
			if h.OnUpdate != nil {
				h.OnUpdate(ctx, update)
			}
			for _, msg := range inbound {
				prommetrics.NotificationCounter.Inc()
				if h.OnNotify != nil {
					h.OnNotify(ctx, msg)
				}
			}
		}, onError)
	})
}
