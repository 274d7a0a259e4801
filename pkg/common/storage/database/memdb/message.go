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
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type messageDB struct {
	db *DB
}

func (m *messageDB) Take(ctx context.Context, conversationID string, messageID string) (*model.Message, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	it, ok := m.db.messages[conversationID][messageID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "conversationID", conversationID, "messageID", messageID)
	}
	return m.output(conversationID, it), nil
}

func (m *messageDB) output(conversationID string, it *item[model.Message]) *model.Message {
	msg := it.doc.Clone()
	msg.ConversationID = conversationID
	return msg
}

// sorted 按createdAt升序返回会话下的全部消息，调用方必须持有db.mu
func (m *messageDB) sorted(conversationID string) []*item[model.Message] {
	items := make([]*item[model.Message], 0, len(m.db.messages[conversationID]))
	for _, it := range m.db.messages[conversationID] {
		items = append(items, it)
	}
	sortItems(items, func(a, b *model.Message) int {
		return compareTime(a.CreatedAt, b.CreatedAt)
	})
	return items
}

func (m *messageDB) Watch(ctx context.Context, conversationID string) (database.Listener[*model.Message], error) {
	return watch(ctx, m.db, func() []entry[*model.Message] {
		return datautil.Slice(m.sorted(conversationID), func(it *item[model.Message]) entry[*model.Message] {
			return entry[*model.Message]{key: it.doc.ID, ver: it.ver, doc: m.output(conversationID, it)}
		})
	}), nil
}

func (m *messageDB) MarkSeen(ctx context.Context, conversationID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	msgs := m.db.messages[conversationID]
	for _, id := range messageIDs {
		if _, ok := msgs[id]; !ok {
			return errs.ErrRecordNotFound.WrapMsg("message not found", "conversationID", conversationID, "messageID", id)
		}
	}
	now := m.db.now()
	for _, id := range messageIDs {
		it := msgs[id]
		seenAt := now
		it.doc.Delivered = true
		it.doc.Seen = true
		it.doc.SeenAt = &seenAt
		it.ver = m.db.nextVersion()
	}
	m.db.commit()
	return nil
}

func (m *messageDB) Page(ctx context.Context, conversationID string, before time.Time, limit int) ([]*model.Message, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	items := m.sorted(conversationID)
	res := make([]*model.Message, 0, limit)
	for i := len(items) - 1; i >= 0 && len(res) < limit; i-- {
		if !before.IsZero() && !items[i].doc.CreatedAt.Before(before) {
			continue
		}
		res = append(res, m.output(conversationID, items[i]))
	}
	return res, nil
}
