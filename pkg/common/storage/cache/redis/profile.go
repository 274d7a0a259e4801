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

package redis

import (
	"context"
	"time"

	"github.com/dtm-labs/rockscache"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/redis/go-redis/v9"

	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// NewProfileCache topic非空时，资料删除会发布到该频道供本地缓存失效
func NewProfileCache(rdb redis.UniversalClient, userDB database.User, topic string) cache.ProfileCache {
	rc := rockscache.NewClient(rdb, *GetRocksCacheOptions())
	var subscribe map[string][]string
	if topic != "" {
		subscribe = map[string][]string{topic: {cachekey.ProfileKey}}
	}
	return &ProfileCacheRedis{
		rdb:     rdb,
		rc:      rc,
		deleter: newCacheDeleter(rdb, rc, subscribe),
		userDB:  userDB,
		expire:  cachekey.ProfileExpire,
	}
}

type ProfileCacheRedis struct {
	rdb     redis.UniversalClient
	rc      *rockscache.Client
	deleter *cacheDeleter
	userDB  database.User
	expire  time.Duration
}

func (p *ProfileCacheRedis) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return getCache(ctx, p.rc, cachekey.GetProfileKey(userID), p.expire, func(ctx context.Context) (*model.UserProfile, error) {
		return p.userDB.Take(ctx, userID)
	})
}

func (p *ProfileCacheRedis) GetProfiles(ctx context.Context, userIDs []string) ([]*model.UserProfile, error) {
	return batchGetCache(ctx, p.rdb, p.rc, p.expire, userIDs, cachekey.GetProfileKey, func(v *model.UserProfile) string {
		return v.UserID
	}, p.userDB.Find)
}

func (p *ProfileCacheRedis) DelProfile(ctx context.Context, userIDs ...string) error {
	return p.deleter.del(ctx, datautil.Slice(userIDs, cachekey.GetProfileKey))
}
