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

	"cloud.google.com/go/firestore"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type conversationDB struct {
	client *firestore.Client
}

func decodeConversation(doc *firestore.DocumentSnapshot) (*model.Conversation, error) {
	var conv model.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errs.WrapMsg(err, "decode conversation failed", "conversationID", doc.Ref.ID)
	}
	conv.ID = doc.Ref.ID
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int64{}
	}
	return &conv, nil
}

func (c *conversationDB) Take(ctx context.Context, conversationID string) (*model.Conversation, error) {
	doc, err := conversationRef(c.client, conversationID).Get(ctx)
	if err != nil {
		return nil, wrap(err, "conversation not found", "conversationID", conversationID)
	}
	return decodeConversation(doc)
}

// AppendMessage 消息创建与会话合并写入放在同一个批量写入中提交
func (c *conversationDB) AppendMessage(ctx context.Context, participants []string, recipientID string, msg *model.Message) error {
	if msg.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("message conversationID is empty")
	}
	convRef := conversationRef(c.client, msg.ConversationID)
	var msgRef *firestore.DocumentRef
	if msg.ID == "" {
		msgRef = convRef.Collection(database.MessageName).NewDoc()
		msg.ID = msgRef.ID
	} else {
		msgRef = convRef.Collection(database.MessageName).Doc(msg.ID)
	}
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}
	batch := c.client.Batch()
	batch.Create(msgRef, msg)
	batch.Set(convRef, map[string]any{
		"participants": firestore.ArrayUnion(datautil.Slice(participants, func(p string) any { return p })...),
		"lastMessage": map[string]any{
			"text":      msg.Preview(),
			"senderId":  msg.SenderID,
			"type":      msg.Type,
			"createdAt": firestore.ServerTimestamp,
		},
		"unreadCount": map[string]any{recipientID: firestore.Increment(1)},
		"updatedAt":   firestore.ServerTimestamp,
	}, firestore.MergeAll)
	results, err := batch.Commit(ctx)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return servererrs.ErrDuplicateKey.WrapMsg("message already exists", "messageID", msg.ID)
		}
		return errs.WrapMsg(err, "append message failed", "conversationID", msg.ConversationID)
	}
	if len(results) > 0 {
		msg.CreatedAt = results[0].UpdateTime
	}
	return nil
}

func (c *conversationDB) IncrUnread(ctx context.Context, conversationID string, userID string, delta int64) error {
	_, err := conversationRef(c.client, conversationID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: firestore.Increment(delta)},
	})
	return wrap(err, "conversation not found", "conversationID", conversationID)
}

func (c *conversationDB) WatchByUser(ctx context.Context, userID string) (database.Listener[*model.Conversation], error) {
	q := c.client.Collection(database.ConversationName).
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)
	return listenQuery(ctx, q, decodeConversation), nil
}

// Delete 先删除子集合再删除会话文档，Firestore不会级联删除子集合
func (c *conversationDB) Delete(ctx context.Context, conversationID string) error {
	ref := conversationRef(c.client, conversationID)
	for _, sub := range []string{database.MessageName, database.TypingName} {
		if _, err := deleteQuery(ctx, c.client, ref.Collection(sub).Query); err != nil {
			return errs.WrapMsg(err, "delete conversation subcollection failed", "conversationID", conversationID, "collection", sub)
		}
	}
	if _, err := ref.Delete(ctx); err != nil {
		return errs.WrapMsg(err, "delete conversation failed", "conversationID", conversationID)
	}
	return nil
}
