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

// Package dummy 未配置离线推送时使用，只记录被丢弃的提醒
package dummy

import (
	"context"
	"sync/atomic"

	"github.com/openimsdk/tools/log"

	"github.com/saloneskills/connect/internal/push/offlinepush/options"
)

type Dummy struct {
	warned  atomic.Bool
	dropped atomic.Int64
}

func NewClient() *Dummy {
	return &Dummy{}
}

func (d *Dummy) Push(ctx context.Context, userIDs []string, title, content string, opts *options.Opts) error {
	n := d.dropped.Add(int64(len(userIDs)))
	if d.warned.CompareAndSwap(false, true) {
		log.ZWarn(ctx, "offline push is not configured", nil, "hint", "set push.enable to fcm in connect-api.yml")
	}
	log.ZDebug(ctx, "offline push dropped", "userIDs", userIDs, "conversationID", opts.Data()["conversationID"], "total", n)
	return nil
}

// Dropped 累计丢弃的接收人数
func (d *Dummy) Dropped() int64 {
	return d.dropped.Load()
}
