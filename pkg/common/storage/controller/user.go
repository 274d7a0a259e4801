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

// Package controller 组合存储与缓存，对上层提供带缓存一致性的读写
package controller

import (
	"context"
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/utils/datautil"

	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/localcache"
)

type UserDatabase interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	// FindProfiles 任一用户不存在时返回 errs.ErrRecordNotFound
	FindProfiles(ctx context.Context, userIDs []string) ([]*model.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *model.UserProfile) error
	SetPresence(ctx context.Context, userID string, online bool, at time.Time) error
}

// NewUserDatabase local为nil时不使用进程内缓存
func NewUserDatabase(userDB database.User, profileCache cache.ProfileCache, local localcache.Cache[*model.UserProfile]) UserDatabase {
	return &userDatabase{userDB: userDB, cache: profileCache, local: local}
}

type userDatabase struct {
	userDB database.User
	cache  cache.ProfileCache
	local  localcache.Cache[*model.UserProfile]
}

func (u *userDatabase) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if u.local == nil {
		return u.cache.GetProfile(ctx, userID)
	}
	return u.local.Get(ctx, cachekey.GetProfileKey(userID), func(ctx context.Context) (*model.UserProfile, error) {
		log.ZDebug(ctx, "profile local cache miss", "userID", userID)
		return u.cache.GetProfile(ctx, userID)
	})
}

func (u *userDatabase) FindProfiles(ctx context.Context, userIDs []string) ([]*model.UserProfile, error) {
	userIDs = datautil.Distinct(userIDs)
	profiles, err := u.cache.GetProfiles(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	if len(profiles) != len(userIDs) {
		found := datautil.SliceSet(datautil.Slice(profiles, func(p *model.UserProfile) string { return p.UserID }))
		var missing []string
		for _, id := range userIDs {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "userIDs", missing)
	}
	return profiles, nil
}

func (u *userDatabase) UpsertProfile(ctx context.Context, profile *model.UserProfile) error {
	if profile.UserID == "" {
		return errs.ErrArgs.WrapMsg("userID is empty")
	}
	if err := u.userDB.Upsert(ctx, profile); err != nil {
		return err
	}
	return u.delCache(ctx, profile.UserID)
}

func (u *userDatabase) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	if err := u.userDB.UpdatePresence(ctx, userID, online, at); err != nil {
		return err
	}
	return u.delCache(ctx, userID)
}

func (u *userDatabase) delCache(ctx context.Context, userID string) error {
	if u.local != nil {
		u.local.Del(ctx, cachekey.GetProfileKey(userID))
	}
	return u.cache.DelProfile(ctx, userID)
}
