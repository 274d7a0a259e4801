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
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// MaxEmojiLength 单个表态的最大字符数（组合emoji可能由多个码点组成）
const MaxEmojiLength = 16

// ToggleReaction 计算userID对emoji的表态切换结果，不修改入参
// 用户在每个对象上最多保留一个表态：
// 已经用emoji表态时撤销；用其他表态时换成emoji；没有表态时添加
// 变空的表态桶被移除，新表态追加在桶尾
func ToggleReaction(reactions map[string][]string, userID, emoji string) map[string][]string {
	out := make(map[string][]string, len(reactions)+1)
	var had bool
	for e, users := range reactions {
		kept := make([]string, 0, len(users))
		for _, u := range users {
			if u == userID {
				if e == emoji {
					had = true
				}
				continue
			}
			kept = append(kept, u)
		}
		if len(kept) > 0 {
			out[e] = kept
		}
	}
	if !had {
		out[emoji] = append(out[emoji], userID)
	}
	return out
}

// UserReaction 返回userID当前的表态，没有时返回空字符串
func UserReaction(reactions map[string][]string, userID string) string {
	for e, users := range reactions {
		for _, u := range users {
			if u == userID {
				return e
			}
		}
	}
	return ""
}

// Reactor 在事务中执行表态切换，消息、帖子、评论共用
type Reactor struct {
	db        database.Reaction
	publisher events.Publisher
	validate  *validator.Validate
}

func NewReactor(db database.Reaction, publisher events.Publisher) *Reactor {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &Reactor{db: db, publisher: publisher, validate: validator.New()}
}

// Toggle 切换表态并返回目标对象新的表态映射
func (r *Reactor) Toggle(ctx context.Context, target model.ReactionTarget, userID, emoji string) (map[string][]string, error) {
	if err := r.validate.Struct(target); err != nil {
		return nil, errs.ErrArgs.WrapMsg(err.Error())
	}
	if target.Kind != model.ReactionTargetPost && target.ParentID == "" {
		return nil, errs.ErrArgs.WrapMsg("reaction target parentID is required", "kind", target.Kind)
	}
	if userID == "" {
		return nil, errs.ErrArgs.WrapMsg("userID is required")
	}
	if emoji == "" || utf8.RuneCountInString(emoji) > MaxEmojiLength {
		return nil, errs.ErrArgs.WrapMsg("invalid emoji", "emoji", emoji)
	}
	reactions, err := r.db.UpdateReactions(ctx, target, func(reactions map[string][]string) (map[string][]string, error) {
		return ToggleReaction(reactions, userID, emoji), nil
	})
	if err != nil {
		return nil, err
	}
	prommetrics.ReactionToggledCounter.WithLabelValues(target.Kind).Inc()
	events.Emit(ctx, r.publisher, &events.Event{
		Type:    events.TypeReactionToggled,
		Key:     target.ParentID + "/" + target.ID,
		ActorID: userID,
		Payload: map[string]any{"kind": target.Kind, "emoji": emoji, "active": UserReaction(reactions, userID) == emoji},
	})
	return reactions, nil
}
