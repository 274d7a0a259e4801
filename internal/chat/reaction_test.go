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
	"fmt"
	"testing"

	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestToggleReaction(t *testing.T) {
	tests := []struct {
		name      string
		reactions map[string][]string
		userID    string
		emoji     string
		want      map[string][]string
	}{
		{
			name:      "switch bucket",
			reactions: map[string][]string{"👍": {"u1", "u2"}, "❤️": {"u3"}},
			userID:    "u1",
			emoji:     "❤️",
			want:      map[string][]string{"👍": {"u2"}, "❤️": {"u3", "u1"}},
		},
		{
			name:      "toggle off removes empty bucket",
			reactions: map[string][]string{"👍": {"u1"}},
			userID:    "u1",
			emoji:     "👍",
			want:      map[string][]string{},
		},
		{
			name:      "add to empty",
			reactions: nil,
			userID:    "u1",
			emoji:     "🔥",
			want:      map[string][]string{"🔥": {"u1"}},
		},
		{
			name:      "toggle off keeps others",
			reactions: map[string][]string{"👍": {"u1", "u2"}},
			userID:    "u2",
			emoji:     "👍",
			want:      map[string][]string{"👍": {"u1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := model.CloneReactions(tt.reactions)
			assert.Equal(t, tt.want, ToggleReaction(tt.reactions, tt.userID, tt.emoji))
			assert.Equal(t, before, tt.reactions)
		})
	}
}

func TestToggleReactionParity(t *testing.T) {
	reactions := map[string][]string{"👍": {"u2"}}
	for i := 1; i <= 5; i++ {
		reactions = ToggleReaction(reactions, "u1", "❤️")
		if i%2 == 1 {
			assert.Equal(t, "❤️", UserReaction(reactions, "u1"))
			assert.Equal(t, []string{"u1"}, reactions["❤️"])
		} else {
			assert.Empty(t, UserReaction(reactions, "u1"))
			assert.NotContains(t, reactions, "❤️")
		}
		assert.Equal(t, []string{"u2"}, reactions["👍"])
	}
}

func TestReactOnMessage(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	msg, err := svc.SendText(ctx, userA, userB, "hi")
	require.NoError(t, err)

	reactions, err := svc.React(ctx, userB, msg.ConversationID, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"👍": {userB}}, reactions)

	reactions, err = svc.React(ctx, userA, msg.ConversationID, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"👍": {userB, userA}}, reactions)

	_, err = svc.React(ctx, userB, msg.ConversationID, msg.ID, "👍")
	require.NoError(t, err)
	stored, err := db.Message().Take(ctx, msg.ConversationID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"👍": {userA}}, stored.Reactions)

	_, err = svc.React(ctx, userC, msg.ConversationID, msg.ID, "👍")
	assert.True(t, servererrs.ErrNotParticipant.Is(errs.Unwrap(err)))
	_, err = svc.React(ctx, userA, msg.ConversationID, "missing", "👍")
	assert.True(t, errs.ErrRecordNotFound.Is(errs.Unwrap(err)))
}

func TestReactorValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tests := []struct {
		name   string
		target model.ReactionTarget
		userID string
		emoji  string
	}{
		{name: "unknown kind", target: model.ReactionTarget{Kind: "story", ParentID: "p", ID: "x"}, userID: userA, emoji: "👍"},
		{name: "missing id", target: model.ReactionTarget{Kind: model.ReactionTargetPost}, userID: userA, emoji: "👍"},
		{name: "message without parent", target: model.ReactionTarget{Kind: model.ReactionTargetMessage, ID: "m"}, userID: userA, emoji: "👍"},
		{name: "empty emoji", target: model.ReactionTarget{Kind: model.ReactionTargetPost, ID: "p"}, userID: userA, emoji: ""},
		{name: "empty user", target: model.ReactionTarget{Kind: model.ReactionTargetPost, ID: "p"}, userID: "", emoji: "👍"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reactor().Toggle(ctx, tt.target, tt.userID, tt.emoji)
			assert.True(t, errs.ErrArgs.Is(errs.Unwrap(err)))
		})
	}
}

func TestReactorConcurrentUsers(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	msg, err := svc.SendText(ctx, userA, userB, "hi")
	require.NoError(t, err)
	target := model.ReactionTarget{Kind: model.ReactionTargetMessage, ParentID: msg.ConversationID, ID: msg.ID}

	const n = 50
	users := make([]string, n)
	var g errgroup.Group
	for i := range users {
		users[i] = fmt.Sprintf("reactor_%02d", i)
		g.Go(func() error {
			_, err := svc.Reactor().Toggle(ctx, target, users[i], "👍")
			return err
		})
	}
	require.NoError(t, g.Wait())

	stored, err := db.Message().Take(ctx, msg.ConversationID, msg.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reactions, 1)
	assert.ElementsMatch(t, users, stored.Reactions["👍"])
}
