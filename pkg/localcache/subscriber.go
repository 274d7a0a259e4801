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

package localcache

import (
	"context"
	"encoding/json"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/redis/go-redis/v9"
)

// SubscribeDelete 阻塞消费channel上的删除广播，消息体为key的json数组
// ctx结束时返回
func SubscribeDelete(ctx context.Context, rdb redis.UniversalClient, channel string, del func(ctx context.Context, key ...string)) {
	defer func() {
		if r := recover(); r != nil {
			log.ZPanic(ctx, "SubscribeDelete panic", errs.ErrPanic(r))
		}
	}()
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			handleDelete(ctx, msg.Payload, del)
		}
	}
}

func handleDelete(ctx context.Context, payload string, del func(ctx context.Context, key ...string)) {
	log.ZDebug(ctx, "local cache delete", "payload", payload)
	var keys []string
	if err := json.Unmarshal([]byte(payload), &keys); err != nil {
		log.ZError(ctx, "local cache delete json.Unmarshal error", err, "payload", payload)
		return
	}
	if len(keys) > 0 {
		del(ctx, keys...)
	}
}
