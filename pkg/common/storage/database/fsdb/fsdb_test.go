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
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestListenError(t *testing.T) {
	assert.True(t, database.IsListenerStopped(listenError(iterator.Done)))
	assert.True(t, database.IsListenerStopped(listenError(context.Canceled)))
	assert.True(t, database.IsListenerStopped(listenError(status.Error(codes.Canceled, "stopped"))))
	assert.False(t, database.IsListenerStopped(listenError(status.Error(codes.PermissionDenied, "denied"))))
}

func TestChangeKind(t *testing.T) {
	assert.Equal(t, database.ChangeAdded, changeKind(firestore.DocumentAdded))
	assert.Equal(t, database.ChangeModified, changeKind(firestore.DocumentModified))
	assert.Equal(t, database.ChangeRemoved, changeKind(firestore.DocumentRemoved))
}

func TestWrapNotFound(t *testing.T) {
	err := wrap(status.Error(codes.NotFound, "no such document"), "conversation not found")
	assert.True(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
	assert.True(t, IsNotFound(status.Error(codes.NotFound, "x")))
	assert.Nil(t, wrap(nil, "unused"))
	err = wrap(status.Error(codes.Unavailable, "down"), "take failed")
	assert.False(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
}

// newEmulatorDB 只在设置了FIRESTORE_EMULATOR_HOST时运行
func newEmulatorDB(t *testing.T) *DB {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "connect-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestEmulatorConversationFlow(t *testing.T) {
	db := newEmulatorDB(t)
	ctx := context.Background()
	cid := fmt.Sprintf("a%d_b%d", time.Now().UnixNano(), time.Now().UnixNano())
	defer func() { _ = db.Conversation().Delete(ctx, cid) }()

	lis, err := db.Message().Watch(ctx, cid)
	require.NoError(t, err)
	defer lis.Stop()
	snap, err := lis.Next()
	require.NoError(t, err)
	assert.Empty(t, snap.Docs)

	msg := &model.Message{ConversationID: cid, SenderID: "a", Type: model.MessageTypeText, Text: "hi"}
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"a", "b"}, "b", msg))
	assert.NotEmpty(t, msg.ID)

	snap, err = lis.Next()
	require.NoError(t, err)
	require.Len(t, snap.Added(), 1)
	assert.Equal(t, "hi", snap.Added()[0].Text)

	conv, err := db.Conversation().Take(ctx, cid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), conv.Unread("b"))
	assert.Equal(t, "hi", conv.LastMessage.Text)

	require.NoError(t, db.Conversation().IncrUnread(ctx, cid, "b", -1))
	require.NoError(t, db.Message().MarkSeen(ctx, cid, []string{msg.ID}))
	stored, err := db.Message().Take(ctx, cid, msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.Seen)
	assert.True(t, stored.Delivered)
	assert.NotNil(t, stored.SeenAt)

	reactions, err := db.Reaction().UpdateReactions(ctx, model.ReactionTarget{Kind: model.ReactionTargetMessage, ParentID: cid, ID: msg.ID},
		func(map[string][]string) (map[string][]string, error) {
			return map[string][]string{"👍": {"b"}}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"👍": {"b"}}, reactions)

	err = db.Message().MarkSeen(ctx, cid, []string{"missing"})
	assert.True(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
}

func TestEmulatorMarkSeenSplitsBatches(t *testing.T) {
	db := newEmulatorDB(t)
	ctx := context.Background()
	cid := fmt.Sprintf("s%d_r%d", time.Now().UnixNano(), time.Now().UnixNano())
	defer func() { _ = db.Conversation().Delete(ctx, cid) }()

	n := batchLimit + 1
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		msg := &model.Message{ConversationID: cid, SenderID: "s", Type: model.MessageTypeText, Text: fmt.Sprint(i)}
		require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"r", "s"}, "r", msg))
		ids = append(ids, msg.ID)
	}

	require.NoError(t, db.Message().MarkSeen(ctx, cid, ids))
	for _, id := range []string{ids[0], ids[batchLimit-1], ids[batchLimit]} {
		stored, err := db.Message().Take(ctx, cid, id)
		require.NoError(t, err)
		assert.True(t, stored.Seen, id)
		assert.True(t, stored.Delivered, id)
	}
}

func TestMarkSeenEmpty(t *testing.T) {
	db := &messageDB{}
	assert.NoError(t, db.MarkSeen(context.Background(), "a_b", nil))
}
