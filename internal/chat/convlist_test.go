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
	"testing"
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database/memdb"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationListDropsUnresolvablePeer(t *testing.T) {
	db := newTestDB(t, memdb.WithClock((&stepClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}).now))
	svc := NewService(Config{}, testDatabases(db))
	ctx := context.Background()

	_, err := svc.SendText(ctx, userA, userB, "to b")
	require.NoError(t, err)
	// 对方资料已被删除的会话
	require.NoError(t, db.Conversation().AppendMessage(ctx, []string{"ghost", userA}, userA, &model.Message{
		ConversationID: ConversationID("ghost", userA), SenderID: "ghost", Type: model.MessageTypeText, Text: "boo",
	}))

	lists := make(chan []*ConversationView, 8)
	sub := svc.SubscribeConversations(ctx, userA, ConversationHandler{
		OnUpdate: func(ctx context.Context, views []*ConversationView) { lists <- views },
	})
	defer sub.Unsubscribe()

	views := recv(t, lists)
	require.Len(t, views, 1)
	assert.Equal(t, ConversationID(userA, userB), views[0].ConversationID)
	assert.Equal(t, userB, views[0].Peer.UserID)
	assert.Equal(t, "USER_BBB", views[0].Peer.DisplayName)
	assert.Equal(t, "to b", views[0].LastMessage.Text)

	_, err = svc.SendText(ctx, userC, userA, "from c")
	require.NoError(t, err)
	views = recv(t, lists)
	require.Len(t, views, 2)
	assert.Equal(t, userC, views[0].Peer.UserID)
	assert.Equal(t, int64(1), views[0].Unread)
	assert.Equal(t, userB, views[1].Peer.UserID)
	assert.Equal(t, int64(0), views[1].Unread)
}

type flakyProfiles struct {
	missing map[string]bool
}

func (f *flakyProfiles) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if f.missing[userID] {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "userID", userID)
	}
	return &model.UserProfile{UserID: userID}, nil
}

func TestConversationListResolvePreservesOrder(t *testing.T) {
	list := &ConversationList{
		profiles:    &flakyProfiles{missing: map[string]bool{"p2": true}},
		concurrency: 2,
	}
	var convs []*model.Conversation
	for _, peer := range []string{"p1", "p2", "p3", "p4"} {
		convs = append(convs, &model.Conversation{ID: ConversationID("me", peer), Participants: []string{"me", peer}})
	}
	convs = append(convs, &model.Conversation{ID: "broken", Participants: []string{"me"}})

	views, err := list.Resolve(context.Background(), "me", convs)
	require.NoError(t, err)
	var peers []string
	for _, v := range views {
		peers = append(peers, v.Peer.UserID)
	}
	assert.Equal(t, []string{"p1", "p3", "p4"}, peers)

	views, err = list.Resolve(context.Background(), "me", nil)
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}
