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

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// ReadState 已读与未读计数
type ReadState struct {
	convDB    database.Conversation
	msgDB     database.Message
	publisher events.Publisher
}

// Unseen 返回msgs中由对方发送且尚未已读的消息ID
func Unseen(userID string, msgs []*model.Message) []string {
	var ids []string
	for _, msg := range msgs {
		if msg.SenderID != userID && !msg.Seen {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// MarkSeen 把对方发来的未读消息在一次批量写入中标记为已读
// 没有需要标记的消息时不产生任何写入；返回标记的条数
func (r *ReadState) MarkSeen(ctx context.Context, conversationID string, userID string, msgs []*model.Message) (int, error) {
	ids := Unseen(userID, msgs)
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.msgDB.MarkSeen(ctx, conversationID, ids); err != nil {
		return 0, err
	}
	prommetrics.SeenMarkedCounter.Add(float64(len(ids)))
	log.ZDebug(ctx, "messages marked seen", "conversationID", conversationID, "userID", userID, "count", len(ids))
	events.Emit(ctx, r.publisher, &events.Event{
		Type:    events.TypeMessagesSeen,
		Key:     conversationID,
		ActorID: userID,
		Payload: map[string]any{"messageIDs": ids},
	})
	return len(ids), nil
}

// ClearUnread 清零userID在会话中的未读计数
// 读取当前计数n后做-n的原子增量，读取与写入之间到达的新消息计数得以保留；
// 会话尚不存在时（还没有发送过消息）不做任何写入
func (r *ReadState) ClearUnread(ctx context.Context, conversationID string, userID string) (int64, error) {
	conv, err := r.convDB.Take(ctx, conversationID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(errs.Unwrap(err)) {
			return 0, nil
		}
		return 0, err
	}
	n := conv.Unread(userID)
	if n <= 0 {
		return 0, nil
	}
	if err := r.convDB.IncrUnread(ctx, conversationID, userID, -n); err != nil {
		return 0, err
	}
	return n, nil
}
