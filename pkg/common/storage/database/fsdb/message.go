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

package fsdb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type messageDB struct {
	client *firestore.Client
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*model.Message, error) {
	var msg model.Message
	if err := doc.DataTo(&msg); err != nil {
		return nil, errs.WrapMsg(err, "decode message failed", "messageID", doc.Ref.ID)
	}
	msg.ID = doc.Ref.ID
	if parent := doc.Ref.Parent.Parent; parent != nil {
		msg.ConversationID = parent.ID
	}
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}
	return &msg, nil
}

func (m *messageDB) Take(ctx context.Context, conversationID string, messageID string) (*model.Message, error) {
	doc, err := messageRef(m.client, conversationID, messageID).Get(ctx)
	if err != nil {
		return nil, wrap(err, "message not found", "conversationID", conversationID, "messageID", messageID)
	}
	return decodeMessage(doc)
}

func (m *messageDB) Watch(ctx context.Context, conversationID string) (database.Listener[*model.Message], error) {
	q := conversationRef(m.client, conversationID).Collection(database.MessageName).OrderBy("createdAt", firestore.Asc)
	return listenQuery(ctx, q, decodeMessage), nil
}

// MarkSeen 按batchLimit分批提交，某一批失败时之前的批次已经生效
// 任意一条消息不存在时该批整体失败
func (m *messageDB) MarkSeen(ctx context.Context, conversationID string, messageIDs []string) error {
	for start := 0; start < len(messageIDs); start += batchLimit {
		end := min(start+batchLimit, len(messageIDs))
		batch := m.client.Batch()
		for _, id := range messageIDs[start:end] {
			batch.Update(messageRef(m.client, conversationID, id), []firestore.Update{
				{Path: "delivered", Value: true},
				{Path: "seen", Value: true},
				{Path: "seenAt", Value: firestore.ServerTimestamp},
			})
		}
		if _, err := batch.Commit(ctx); err != nil {
			return wrap(err, "mark seen failed", "conversationID", conversationID, "offset", start, "count", len(messageIDs))
		}
	}
	return nil
}

func (m *messageDB) Page(ctx context.Context, conversationID string, before time.Time, limit int) ([]*model.Message, error) {
	q := conversationRef(m.client, conversationID).Collection(database.MessageName).OrderBy("createdAt", firestore.Desc)
	if !before.IsZero() {
		q = q.StartAfter(before)
	}
	return getAll(ctx, q.Limit(limit), decodeMessage)
}
