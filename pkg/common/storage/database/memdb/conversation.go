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

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type conversationDB struct {
	db *DB
}

func (c *conversationDB) Take(ctx context.Context, conversationID string) (*model.Conversation, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	it, ok := c.db.conversations[conversationID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("conversation not found", "conversationID", conversationID)
	}
	return cloneConversation(it.doc), nil
}

func (c *conversationDB) AppendMessage(ctx context.Context, participants []string, recipientID string, msg *model.Message) error {
	if msg.ConversationID == "" {
		return errs.ErrArgs.WrapMsg("message conversationID is empty")
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	now := c.db.now()
	if msg.ID == "" {
		msg.ID = c.db.newID("m")
	}
	msg.CreatedAt = now
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}
	msgs, ok := c.db.messages[msg.ConversationID]
	if !ok {
		msgs = make(map[string]*item[model.Message])
		c.db.messages[msg.ConversationID] = msgs
	}
	if _, ok := msgs[msg.ID]; ok {
		return servererrs.ErrDuplicateKey.WrapMsg("message already exists", "messageID", msg.ID)
	}
	msgs[msg.ID] = &item[model.Message]{doc: msg.Clone(), ver: c.db.nextVersion(), seq: c.db.nextSeq()}

	it, ok := c.db.conversations[msg.ConversationID]
	if !ok {
		it = &item[model.Conversation]{
			doc: &model.Conversation{ID: msg.ConversationID, UnreadCount: map[string]int64{}},
			seq: c.db.nextSeq(),
		}
		c.db.conversations[msg.ConversationID] = it
	}
	conv := it.doc
	conv.Participants = datautil.Distinct(append(conv.Participants, participants...))
	conv.LastMessage = &model.LastMessage{
		Text:      msg.Preview(),
		SenderID:  msg.SenderID,
		Type:      msg.Type,
		CreatedAt: now,
	}
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int64{}
	}
	conv.UnreadCount[recipientID]++
	conv.UpdatedAt = now
	it.ver = c.db.nextVersion()
	c.db.commit()
	return nil
}

func (c *conversationDB) IncrUnread(ctx context.Context, conversationID string, userID string, delta int64) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	it, ok := c.db.conversations[conversationID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("conversation not found", "conversationID", conversationID)
	}
	if it.doc.UnreadCount == nil {
		it.doc.UnreadCount = map[string]int64{}
	}
	it.doc.UnreadCount[userID] += delta
	it.ver = c.db.nextVersion()
	c.db.commit()
	return nil
}

func (c *conversationDB) WatchByUser(ctx context.Context, userID string) (database.Listener[*model.Conversation], error) {
	return watch(ctx, c.db, func() []entry[*model.Conversation] {
		items := make([]*item[model.Conversation], 0)
		for _, it := range c.db.conversations {
			if it.doc.HasParticipant(userID) {
				items = append(items, it)
			}
		}
		sortItems(items, func(a, b *model.Conversation) int {
			return compareTime(b.UpdatedAt, a.UpdatedAt)
		})
		return datautil.Slice(items, func(it *item[model.Conversation]) entry[*model.Conversation] {
			return entry[*model.Conversation]{key: it.doc.ID, ver: it.ver, doc: cloneConversation(it.doc)}
		})
	}), nil
}

func (c *conversationDB) Delete(ctx context.Context, conversationID string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	delete(c.db.conversations, conversationID)
	delete(c.db.messages, conversationID)
	delete(c.db.typing, conversationID)
	c.db.commit()
	return nil
}
