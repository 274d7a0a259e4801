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
	"sync/atomic"
	"testing"
	"time"

	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingConversationDB 在读取未读数之后、扣减之前插入一次写入
type racingConversationDB struct {
	database.Conversation
	afterTake func()
	incrCalls int32
}

func (r *racingConversationDB) Take(ctx context.Context, conversationID string) (*model.Conversation, error) {
	conv, err := r.Conversation.Take(ctx, conversationID)
	if r.afterTake != nil {
		r.afterTake()
	}
	return conv, err
}

func (r *racingConversationDB) IncrUnread(ctx context.Context, conversationID string, userID string, delta int64) error {
	atomic.AddInt32(&r.incrCalls, 1)
	return r.Conversation.IncrUnread(ctx, conversationID, userID, delta)
}

func TestClearUnreadToleratesConcurrentIncrement(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	cid := ConversationID(userA, userB)
	for i := 0; i < 3; i++ {
		_, err := svc.SendText(ctx, userA, userB, "hi")
		require.NoError(t, err)
	}

	racing := &racingConversationDB{Conversation: db.Conversation()}
	racing.afterTake = func() {
		racing.afterTake = nil
		require.NoError(t, db.Conversation().AppendMessage(ctx, []string{userA, userB}, userB, &model.Message{
			ConversationID: cid, SenderID: userA, Type: model.MessageTypeText, Text: "racing",
		}))
	}
	rs := &ReadState{convDB: racing, msgDB: db.Message(), publisher: events.NewNopPublisher()}

	n, err := rs.ClearUnread(ctx, cid, userB)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	conv, err := db.Conversation().Take(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), conv.Unread(userB))
}

func TestClearUnreadNoop(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	racing := &racingConversationDB{Conversation: db.Conversation()}
	rs := &ReadState{convDB: racing, msgDB: db.Message(), publisher: events.NewNopPublisher()}

	n, err := rs.ClearUnread(ctx, ConversationID(userA, userB), userB)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.SendText(ctx, userA, userB, "hi")
	require.NoError(t, err)
	n, err = rs.ClearUnread(ctx, ConversationID(userA, userB), userA)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, atomic.LoadInt32(&racing.incrCalls))
}

type countingMessageDB struct {
	database.Message
	batches [][]string
}

func (c *countingMessageDB) MarkSeen(ctx context.Context, conversationID string, messageIDs []string) error {
	c.batches = append(c.batches, messageIDs)
	return c.Message.MarkSeen(ctx, conversationID, messageIDs)
}

func TestMarkSeenSingleBatchAndIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	cid := ConversationID(userA, userB)
	for _, text := range []string{"one", "two"} {
		_, err := svc.SendText(ctx, userA, userB, text)
		require.NoError(t, err)
	}
	_, err := svc.SendText(ctx, userB, userA, "mine")
	require.NoError(t, err)

	counting := &countingMessageDB{Message: db.Message()}
	rs := &ReadState{convDB: db.Conversation(), msgDB: counting, publisher: events.NewNopPublisher()}
	msgs, err := db.Message().Page(ctx, cid, time.Time{}, 10)
	require.NoError(t, err)

	n, err := rs.MarkSeen(ctx, cid, userB, msgs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, counting.batches, 1)
	assert.Len(t, counting.batches[0], 2)

	msgs, err = db.Message().Page(ctx, cid, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, Unseen(userB, msgs))
	n, err = rs.MarkSeen(ctx, cid, userB, msgs)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, counting.batches, 1)
}
