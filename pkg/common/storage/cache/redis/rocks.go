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
	"encoding/json"
	"fmt"
	"time"

	"github.com/dtm-labs/rockscache"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/redis/go-redis/v9"

	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
)

const rocksCacheTimeout = 11 * time.Second

// GetRocksCacheOptions 强一致模式，过期时间随机浮动20%避免同时失效
func GetRocksCacheOptions() *rockscache.Options {
	opts := rockscache.NewDefaultOptions()
	opts.LockExpire = rocksCacheTimeout
	opts.WaitReplicasTimeout = rocksCacheTimeout
	opts.StrongConsistency = true
	opts.RandomExpireAdjustment = 0.2
	return &opts
}

// getCache 单key旁路缓存，fn返回的值以json写入
// 缓存中的空值表示数据不存在
func getCache[T any](ctx context.Context, rc *rockscache.Client, key string, expire time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		t     T
		write bool
	)
	v, err := rc.Fetch2(ctx, key, expire, func() (string, error) {
		var err error
		t, err = fn(ctx)
		if err != nil {
			return "", err
		}
		bs, err := json.Marshal(t)
		if err != nil {
			return "", errs.WrapMsg(err, "marshal failed")
		}
		write = true
		return string(bs), nil
	})
	if err != nil {
		return t, errs.Wrap(err)
	}
	if write {
		return t, nil
	}
	if v == "" {
		return t, errs.ErrRecordNotFound.WrapMsg("cache is not found", "key", key)
	}
	if err := json.Unmarshal([]byte(v), &t); err != nil {
		return t, errs.WrapMsg(err, fmt.Sprintf("cache json.Unmarshal failed, key:%s, value:%s", key, v))
	}
	return t, nil
}

// batchGetCache 批量旁路缓存
// 集群模式下按槽位分组后逐组FetchBatch2，未命中的id交给fn一次查询
func batchGetCache[K comparable, V any](ctx context.Context, rdb redis.UniversalClient, rc *rockscache.Client, expire time.Duration,
	ids []K, idKey func(id K) string, vID func(v *V) K, fn func(ctx context.Context, ids []K) ([]*V, error)) ([]*V, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(ids))
	keyID := make(map[string]K, len(ids))
	for _, id := range ids {
		key := idKey(id)
		if _, ok := keyID[key]; ok {
			continue
		}
		keyID[key] = id
		keys = append(keys, key)
	}
	slotKeys, err := groupKeysBySlot(ctx, rdb, keys)
	if err != nil {
		return nil, err
	}
	result := make([]*V, 0, len(keys))
	for _, keys := range slotKeys {
		indexCache, err := rc.FetchBatch2(ctx, keys, expire, func(idx []int) (map[int]string, error) {
			query := make([]K, 0, len(idx))
			idIndex := make(map[K]int, len(idx))
			for _, i := range idx {
				id := keyID[keys[i]]
				idIndex[id] = i
				query = append(query, id)
			}
			values, err := fn(ctx, query)
			if err != nil {
				log.ZError(ctx, "batchGetCache query failed", err, "ids", query)
				return nil, err
			}
			res := make(map[int]string, len(values))
			for _, value := range values {
				i, ok := idIndex[vID(value)]
				if !ok {
					continue
				}
				bs, err := json.Marshal(value)
				if err != nil {
					return nil, errs.WrapMsg(err, "marshal failed")
				}
				res[i] = string(bs)
			}
			return res, nil
		})
		if err != nil {
			return nil, errs.WrapMsg(err, "FetchBatch2 failed")
		}
		for _, data := range indexCache {
			if data == "" {
				continue
			}
			var value V
			if err := json.Unmarshal([]byte(data), &value); err != nil {
				return nil, errs.WrapMsg(err, "Unmarshal failed")
			}
			result = append(result, &value)
		}
	}
	return result, nil
}

// cacheDeleter 标记删除缓存并向订阅了对应前缀的频道发布被删除的key
type cacheDeleter struct {
	rdb       redis.UniversalClient
	rc        *rockscache.Client
	subscribe map[string][]string
}

func newCacheDeleter(rdb redis.UniversalClient, rc *rockscache.Client, subscribe map[string][]string) *cacheDeleter {
	return &cacheDeleter{rdb: rdb, rc: rc, subscribe: subscribe}
}

func (c *cacheDeleter) del(ctx context.Context, keys []string) error {
	keys = datautil.Distinct(keys)
	if len(keys) == 0 {
		return nil
	}
	log.ZDebug(ctx, "delete cache", "keys", keys)
	err := processKeysBySlot(ctx, c.rdb, keys, func(ctx context.Context, slot int64, keys []string) error {
		return c.rc.TagAsDeletedBatch2(ctx, keys)
	})
	if err != nil {
		return err
	}
	for topic, keys := range cachekey.KeysByTopic(c.subscribe, keys) {
		data, err := json.Marshal(keys)
		if err != nil {
			log.ZWarn(ctx, "keys json marshal failed", err, "topic", topic, "keys", keys)
			continue
		}
		if err := c.rdb.Publish(ctx, topic, string(data)).Err(); err != nil {
			log.ZWarn(ctx, "redis publish cache delete error", err, "topic", topic, "keys", keys)
		}
	}
	return nil
}
