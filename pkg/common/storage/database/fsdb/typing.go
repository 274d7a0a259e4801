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

type typingDB struct {
	client *firestore.Client
}

func decodeTyping(doc *firestore.DocumentSnapshot) (*model.TypingSignal, error) {
	var sig model.TypingSignal
	if err := doc.DataTo(&sig); err != nil {
		return nil, errs.WrapMsg(err, "decode typing signal failed", "userID", doc.Ref.ID)
	}
	sig.UserID = doc.Ref.ID
	if parent := doc.Ref.Parent.Parent; parent != nil {
		sig.ConversationID = parent.ID
	}
	return &sig, nil
}

func (t *typingDB) Set(ctx context.Context, conversationID string, userID string, isTyping bool) error {
	_, err := typingRef(t.client, conversationID, userID).Set(ctx, &model.TypingSignal{IsTyping: isTyping})
	if err != nil {
		return errs.WrapMsg(err, "set typing failed", "conversationID", conversationID, "userID", userID)
	}
	return nil
}

func (t *typingDB) Watch(ctx context.Context, conversationID string, userID string) (database.Listener[*model.TypingSignal], error) {
	return listenDoc(ctx, typingRef(t.client, conversationID, userID), decodeTyping), nil
}

// DeleteOlderThan 跨会话清理，依赖typing集合组上updatedAt的单字段索引
func (t *typingDB) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	q := t.client.CollectionGroup(database.TypingName).Where("updatedAt", "<", before)
	return deleteQuery(ctx, t.client, q)
}
