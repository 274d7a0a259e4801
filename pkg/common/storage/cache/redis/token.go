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

	"github.com/openimsdk/tools/errs"
	"github.com/redis/go-redis/v9"

	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
)

const pushTokenExpire = 60 * 24 * time.Hour

func NewPushTokenCache(rdb redis.UniversalClient) cache.PushTokenCache {
	return &pushToken{rdb: rdb, expire: pushTokenExpire}
}

// pushToken 每个用户一个集合，设备重新登记时刷新过期时间
type pushToken struct {
	rdb    redis.UniversalClient
	expire time.Duration
}

func (p *pushToken) SetToken(ctx context.Context, userID string, token string) error {
	if token == "" {
		return errs.ErrArgs.WrapMsg("empty push token")
	}
	key := cachekey.GetPushTokenKey(userID)
	pipe := p.rdb.TxPipeline()
	pipe.SAdd(ctx, key, token)
	pipe.Expire(ctx, key, p.expire)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err)
	}
	return nil
}

func (p *pushToken) GetTokens(ctx context.Context, userID string) ([]string, error) {
	tokens, err := p.rdb.SMembers(ctx, cachekey.GetPushTokenKey(userID)).Result()
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return tokens, nil
}

func (p *pushToken) DelToken(ctx context.Context, userID string, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	members := make([]any, 0, len(tokens))
	for _, t := range tokens {
		members = append(members, t)
	}
	if err := p.rdb.SRem(ctx, cachekey.GetPushTokenKey(userID), members...).Err(); err != nil {
		return errs.Wrap(err)
	}
	return nil
}
