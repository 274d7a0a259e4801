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

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize       = 50
	defaultConcurrentLimit = 3
)

// groupKeysBySlot 集群模式下按哈希槽分组，单机模式全部归入槽0
func groupKeysBySlot(ctx context.Context, rdb redis.UniversalClient, keys []string) (map[int64][]string, error) {
	slots := make(map[int64][]string)
	cluster, ok := rdb.(*redis.ClusterClient)
	if !ok || len(keys) < 2 {
		slots[0] = keys
		return slots, nil
	}
	pipe := cluster.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.ClusterKeySlot(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errs.WrapMsg(err, "get slot err")
	}
	for i, cmd := range cmds {
		slot, err := cmd.Result()
		if err != nil {
			return nil, errs.WrapMsg(err, "get slot err", "key", keys[i])
		}
		slots[slot] = append(slots[slot], keys[i])
	}
	return slots, nil
}

func splitIntoBatches(keys []string, batchSize int) [][]string {
	var batches [][]string
	for batchSize < len(keys) {
		keys, batches = keys[batchSize:], append(batches, keys[0:batchSize:batchSize])
	}
	return append(batches, keys)
}

// processKeysBySlot 分槽分批并发执行fn，任一批失败即返回
func processKeysBySlot(ctx context.Context, rdb redis.UniversalClient, keys []string, fn func(ctx context.Context, slot int64, keys []string) error) error {
	slots, err := groupKeysBySlot(ctx, rdb, keys)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrentLimit)
	for slot, slotKeys := range slots {
		for _, batch := range splitIntoBatches(slotKeys, defaultBatchSize) {
			g.Go(func() error {
				if err := fn(ctx, slot, batch); err != nil {
					log.ZWarn(ctx, "batch process failed", err, "slot", slot, "keys", batch)
					return err
				}
				return nil
			})
		}
	}
	return g.Wait()
}
