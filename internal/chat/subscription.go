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

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/pkg/common/storage/database"
)

// Subscription 一个活跃监听的句柄
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startSubscription 在独立协程中运行run，ctx在Unsubscribe时取消
func startSubscription(ctx context.Context, run func(ctx context.Context)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer func() {
			if r := recover(); r != nil {
				log.ZPanic(ctx, "subscription panic", errs.ErrPanic(r))
			}
		}()
		run(ctx)
	}()
	return s
}

// Unsubscribe 停止监听，不等待协程退出，可以在回调中调用
func (s *Subscription) Unsubscribe() {
	s.cancel()
}

// Done 监听协程退出后关闭
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// consume 依次处理快照，直到监听停止或出错
// 非停止类错误只回调一次，之后监听被拆除，不做自动重连
func consume[T any](ctx context.Context, lis database.Listener[T], onSnapshot func(snap *database.Snapshot[T]), onError func(err error)) {
	defer lis.Stop()
	for {
		snap, err := lis.Next()
		if err != nil {
			if ctx.Err() != nil || database.IsListenerStopped(err) {
				return
			}
			if onError != nil {
				onError(err)
			}
			return
		}
		onSnapshot(snap)
	}
}
