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

package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/tools/optimistic"
)

// Viewer 当前用户视角下的关注集合
// 关注、取关先更新本地集合再写存储，写入失败时回滚本地集合
type Viewer struct {
	userID    string
	followDB  database.Follow
	userDB    database.User
	publisher events.Publisher

	mu        sync.RWMutex
	following map[string]struct{}
}

// NewViewer 读取userID当前的关注列表
func (s *Service) NewViewer(ctx context.Context, userID string) (*Viewer, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WrapMsg("userID is required")
	}
	ids, err := s.db.Follow.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		userID:    userID,
		followDB:  s.db.Follow,
		userDB:    s.db.User,
		publisher: s.publisher,
		following: datautil.SliceSet(ids),
	}, nil
}

func (v *Viewer) UserID() string { return v.userID }

// IsFollowing 本地视角下是否已关注
func (v *Viewer) IsFollowing(targetID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.following[targetID]
	return ok
}

// Following 本地关注集合，按ID排序
func (v *Viewer) Following() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ids := datautil.Keys(v.following)
	sort.Strings(ids)
	return ids
}

func (v *Viewer) set(targetID string, follow bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if follow {
		v.following[targetID] = struct{}{}
	} else {
		delete(v.following, targetID)
	}
}

func (v *Viewer) check(ctx context.Context, targetID string) error {
	if targetID == "" || targetID == v.userID {
		return errs.ErrArgs.WrapMsg("invalid follow target", "targetID", targetID)
	}
	if _, err := v.userDB.Take(ctx, targetID); err != nil {
		if errs.ErrRecordNotFound.Is(errs.Unwrap(err)) {
			return errs.ErrArgs.WrapMsg("follow target not found", "targetID", targetID)
		}
		return err
	}
	return nil
}

// Follow 关注targetID
func (v *Viewer) Follow(ctx context.Context, targetID string) error {
	return v.apply(ctx, targetID, true)
}

// Unfollow 取消关注targetID
func (v *Viewer) Unfollow(ctx context.Context, targetID string) error {
	return v.apply(ctx, targetID, false)
}

// Toggle 根据本地状态关注或者取关，返回操作后的状态
func (v *Viewer) Toggle(ctx context.Context, targetID string) (bool, error) {
	follow := !v.IsFollowing(targetID)
	if err := v.apply(ctx, targetID, follow); err != nil {
		return !follow, err
	}
	return follow, nil
}

func (v *Viewer) apply(ctx context.Context, targetID string, follow bool) error {
	if err := v.check(ctx, targetID); err != nil {
		return err
	}
	before := v.IsFollowing(targetID)
	if before == follow {
		return nil
	}
	name := "unfollow"
	if follow {
		name = "follow"
	}
	err := optimistic.Mutation{
		Name:  name,
		Apply: func() { v.set(targetID, follow) },
		Commit: func(ctx context.Context) error {
			if follow {
				return v.followDB.Follow(ctx, v.userID, targetID)
			}
			return v.followDB.Unfollow(ctx, v.userID, targetID)
		},
		Rollback: func() { v.set(targetID, before) },
	}.Run(ctx)
	if err != nil {
		return err
	}
	events.Emit(ctx, v.publisher, &events.Event{
		Type:    events.TypeFollowChanged,
		Key:     v.userID,
		ActorID: v.userID,
		Payload: map[string]any{"targetID": targetID, "following": follow},
	})
	return nil
}
