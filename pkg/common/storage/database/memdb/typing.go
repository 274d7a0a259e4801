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

	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type typingDB struct {
	db *DB
}

func (t *typingDB) Set(ctx context.Context, conversationID string, userID string, isTyping bool) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	signals, ok := t.db.typing[conversationID]
	if !ok {
		signals = make(map[string]*item[model.TypingSignal])
		t.db.typing[conversationID] = signals
	}
	it, ok := signals[userID]
	if !ok {
		it = &item[model.TypingSignal]{doc: &model.TypingSignal{}, seq: t.db.nextSeq()}
		signals[userID] = it
	}
	it.doc.IsTyping = isTyping
	it.doc.UpdatedAt = t.db.now()
	it.ver = t.db.nextVersion()
	t.db.commit()
	return nil
}

func (t *typingDB) Watch(ctx context.Context, conversationID string, userID string) (database.Listener[*model.TypingSignal], error) {
	return watch(ctx, t.db, func() []entry[*model.TypingSignal] {
		it, ok := t.db.typing[conversationID][userID]
		if !ok {
			return nil
		}
		sig := *it.doc
		sig.ConversationID = conversationID
		sig.UserID = userID
		return []entry[*model.TypingSignal]{{key: userID, ver: it.ver, doc: &sig}}
	}), nil
}

func (t *typingDB) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var n int
	for conversationID, signals := range t.db.typing {
		for userID, it := range signals {
			if it.doc.UpdatedAt.Before(before) {
				delete(signals, userID)
				n++
			}
		}
		if len(signals) == 0 {
			delete(t.db.typing, conversationID)
		}
	}
	if n > 0 {
		t.db.commit()
	}
	return n, nil
}
