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
	"testing"
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestDB() *DB {
	clock := &stepClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.now))
}

func textMessage(conversationID, senderID, text string) *model.Message {
	return &model.Message{ConversationID: conversationID, SenderID: senderID, Type: model.MessageTypeText, Text: text}
}

func TestAppendMessageUpdatesConversation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()
	msg := textMessage("a_b", "a", "hello")
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "b", msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	conv, err := db.Conversation().Take(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, conv.Participants)
	assert.Equal(t, int64(1), conv.Unread("b"))
	assert.Equal(t, int64(0), conv.Unread("a"))
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "hello", conv.LastMessage.Text)
	assert.Equal(t, msg.CreatedAt, conv.UpdatedAt)

	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "b", &model.Message{
		ConversationID: "a_b", SenderID: "a", Type: model.MessageTypeImage, ImageURL: "https://img",
	}))
	conv, err = db.Conversation().Take(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), conv.Unread("b"))
	assert.Equal(t, model.ImagePreviewText, conv.LastMessage.Text)
}

func TestTakeMissingConversation(t *testing.T) {
	_, err := newTestDB().Conversation().Take(context.Background(), "x_y")
	assert.True(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
}

func TestMessageWatchDiffs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()
	first := textMessage("a_b", "a", "one")
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "b", first))

	lis, err := db.Message().Watch(ctx, "a_b")
	require.NoError(t, err)
	defer lis.Stop()

	snap, err := lis.Next()
	require.NoError(t, err)
	require.Len(t, snap.Docs, 1)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, database.ChangeAdded, snap.Changes[0].Kind)

	second := textMessage("a_b", "b", "two")
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "a", second))
	snap, err = lis.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, []string{snap.Docs[0].ID, snap.Docs[1].ID})
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, database.ChangeAdded, snap.Changes[0].Kind)
	assert.Equal(t, "two", snap.Changes[0].Doc.Text)

	require.NoError(t, db.Message().MarkSeen(ctx, "a_b", []string{first.ID}))
	snap, err = lis.Next()
	require.NoError(t, err)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, database.ChangeModified, snap.Changes[0].Kind)
	assert.True(t, snap.Changes[0].Doc.Seen)
	assert.NotNil(t, snap.Changes[0].Doc.SeenAt)

	require.NoError(t, db.Conversation().Delete(ctx, "a_b"))
	snap, err = lis.Next()
	require.NoError(t, err)
	assert.Empty(t, snap.Docs)
	assert.Len(t, snap.Changes, 2)
	for _, c := range snap.Changes {
		assert.Equal(t, database.ChangeRemoved, c.Kind)
	}
}

func TestListenerStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	db := newTestDB()
	lis, err := db.Typing().Watch(ctx, "a_b", "a")
	require.NoError(t, err)
	snap, err := lis.Next()
	require.NoError(t, err)
	assert.Empty(t, snap.Docs)

	cancel()
	_, err = lis.Next()
	assert.True(t, database.IsListenerStopped(err))
	lis.Stop()
}

func TestMarkSeenMissingMessageIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()
	msg := textMessage("a_b", "a", "one")
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "b", msg))
	err := db.Message().MarkSeen(ctx, "a_b", []string{msg.ID, "missing"})
	assert.True(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
	got, err := db.Message().Take(ctx, "a_b", msg.ID)
	require.NoError(t, err)
	assert.False(t, got.Seen)
}

func TestConversationWatchOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "b", textMessage("a_b", "a", "1")))
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "c"}, "c", textMessage("a_c", "a", "2")))
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"b", "c"}, "c", textMessage("b_c", "b", "3")))

	lis, err := db.Conversation().WatchByUser(ctx, "a")
	require.NoError(t, err)
	defer lis.Stop()
	snap, err := lis.Next()
	require.NoError(t, err)
	require.Len(t, snap.Docs, 2)
	assert.Equal(t, "a_c", snap.Docs[0].ID)
	assert.Equal(t, "a_b", snap.Docs[1].ID)

	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "a", textMessage("a_b", "b", "4")))
	snap, err = lis.Next()
	require.NoError(t, err)
	assert.Equal(t, "a_b", snap.Docs[0].ID)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, database.ChangeModified, snap.Changes[0].Kind)
}

func TestTypingDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()
	require.NoError(t, db.Typing().Set(ctx, "a_b", "a", true))
	require.NoError(t, db.Typing().Set(ctx, "a_b", "b", true))
	n, err := db.Typing().DeleteOlderThan(ctx, time.Date(2024, 5, 1, 10, 0, 1, 500, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCommentIncrementsPost(t *testing.T) {
	ctx := context.Background()
	db := newTestDB()
	post := &model.Post{AuthorID: "a", Body: "hi"}
	require.NoError(t, db.Post().Create(ctx, post))
	require.NoError(t, db.Comment().Create(ctx, &model.Comment{PostID: post.ID, AuthorID: "b", Body: "nice"}))
	got, err := db.Post().Take(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentCount)

	err = db.Comment().Create(ctx, &model.Comment{PostID: "missing", AuthorID: "b", Body: "x"})
	assert.True(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
}
