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
	"strconv"
	"strings"
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/redis/go-redis/v9"

	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
)

// setOnlineScript 有序集合的score为连接的过期时间戳
// ARGV: 键过期秒数, 当前时间, 新的过期时间, 离线数量, 离线connID..., 在线connID...
// 返回当前全部connID，末尾追加变化标志
const setOnlineScript = `
local key = KEYS[1]
local score = ARGV[3]
local num1 = redis.call("ZCARD", key)
redis.call("ZREMRANGEBYSCORE", key, "-inf", ARGV[2])
for i = 5, tonumber(ARGV[4])+4 do
	redis.call("ZREM", key, ARGV[i])
end
local num2 = redis.call("ZCARD", key)
for i = 5+tonumber(ARGV[4]), #ARGV do
	redis.call("ZADD", key, score, ARGV[i])
end
redis.call("EXPIRE", key, ARGV[1])
local num3 = redis.call("ZCARD", key)
local members = redis.call("ZRANGE", key, 0, -1)
if (num1 ~= num2) or (num2 ~= num3) then
	table.insert(members, "1")
else
	table.insert(members, "0")
end
return members
`

func NewOnlineCache(rdb redis.UniversalClient, expire time.Duration) cache.OnlineCache {
	if expire <= 0 {
		expire = cachekey.OnlineExpire
	}
	return &userOnline{
		rdb:         rdb,
		expire:      expire,
		channelName: cachekey.OnlineChannel,
		now:         time.Now,
	}
}

type userOnline struct {
	rdb         redis.UniversalClient
	expire      time.Duration
	channelName string
	now         func() time.Time
}

func (s *userOnline) GetOnline(ctx context.Context, userID string) ([]string, error) {
	members, err := s.rdb.ZRangeByScore(ctx, cachekey.GetOnlineKey(userID), &redis.ZRangeBy{
		Min: strconv.FormatInt(s.now().Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return members, nil
}

func (s *userOnline) SetOnline(ctx context.Context, userID string, online, offline []string) (bool, error) {
	now := s.now()
	argv := make([]any, 0, 4+len(online)+len(offline))
	argv = append(argv, int64(s.expire/time.Second), now.Unix(), now.Add(s.expire).Unix(), len(offline))
	for _, id := range offline {
		argv = append(argv, id)
	}
	for _, id := range online {
		argv = append(argv, id)
	}
	members, err := s.rdb.Eval(ctx, setOnlineScript, []string{cachekey.GetOnlineKey(userID)}, argv...).StringSlice()
	if err != nil {
		log.ZError(ctx, "redis SetOnline", err, "userID", userID, "online", online, "offline", offline)
		return false, errs.Wrap(err)
	}
	if len(members) == 0 {
		return false, errs.ErrInternalServer.WrapMsg("SetOnline redis lua invalid return value")
	}
	last := len(members) - 1
	isOnline := last > 0
	if members[last] == "0" {
		return isOnline, nil
	}
	log.ZDebug(ctx, "redis SetOnline changed", "userID", userID, "connIDs", members[:last])
	members[last] = userID
	if err := s.rdb.Publish(ctx, s.channelName, strings.Join(members, ":")).Err(); err != nil {
		return isOnline, errs.Wrap(err)
	}
	return isOnline, nil
}
