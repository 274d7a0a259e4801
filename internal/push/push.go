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

// Package push 新消息的提醒：在线连接收到提示音帧，完全离线时走FCM
package push

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"

	"github.com/saloneskills/connect/internal/push/offlinepush"
	"github.com/saloneskills/connect/internal/push/offlinepush/options"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/tools/batcher"
)

// LocalPusher 本进程持有的长连接，返回实际写入的连接数
type LocalPusher interface {
	PushSound(ctx context.Context, userID string, msg *model.Message) int
}

type ProfileGetter interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

type task struct {
	operationID string
	userID      string
	msg         *model.Message
}

type Notifier struct {
	local    atomic.Pointer[LocalPusher]
	online   cache.OnlineCache
	profiles ProfileGetter
	pusher   offlinepush.OfflinePusher
	batcher  *batcher.Batcher[task]
}

func NewNotifier(conf *config.Push, online cache.OnlineCache, profiles ProfileGetter, pusher offlinepush.OfflinePusher) *Notifier {
	opts := []batcher.Option{}
	if conf.BatchSize > 0 {
		opts = append(opts, batcher.WithSize(conf.BatchSize))
	}
	if conf.BatchInterval > 0 {
		opts = append(opts, batcher.WithInterval(conf.BatchInterval))
	}
	if conf.Worker > 0 {
		opts = append(opts, batcher.WithWorker(conf.Worker))
	}
	n := &Notifier{
		online:   online,
		profiles: profiles,
		pusher:   pusher,
		batcher:  batcher.New[task](opts...),
	}
	n.batcher.Key = func(t *task) string { return t.userID }
	n.batcher.Do = n.pushBatch
	return n
}

// SetLocalPusher 网关创建后注入
func (n *Notifier) SetLocalPusher(p LocalPusher) {
	n.local.Store(&p)
}

func (n *Notifier) Start() error {
	return n.batcher.Start()
}

// Close 等待排队中的离线推送发送完毕
func (n *Notifier) Close() {
	n.batcher.Close()
}

// NotifyOffline 发送成功后调用，不返回错误
func (n *Notifier) NotifyOffline(ctx context.Context, recipientID string, msg *model.Message) {
	if p := n.local.Load(); p != nil {
		if cnt := (*p).PushSound(ctx, recipientID, msg); cnt > 0 {
			log.ZDebug(ctx, "sound frame pushed", "userID", recipientID, "conns", cnt)
			return
		}
	}
	conns, err := n.online.GetOnline(ctx, recipientID)
	if err != nil {
		log.ZWarn(ctx, "get online failed, push offline anyway", err, "userID", recipientID)
	} else if len(conns) > 0 {
		log.ZDebug(ctx, "recipient online on another gateway", "userID", recipientID, "conns", conns)
		return
	}
	t := &task{operationID: mcontext.GetOperationID(ctx), userID: recipientID, msg: msg}
	if err := n.batcher.Put(ctx, t); err != nil {
		log.ZWarn(ctx, "queue offline push failed", err, "userID", recipientID)
		prommetrics.OfflinePushCounter.WithLabelValues("dropped").Inc()
	}
}

func (n *Notifier) pushBatch(_ context.Context, worker int, msg *batcher.Msg[task]) {
	tasks := msg.Val()
	last := tasks[len(tasks)-1]
	ctx := mcontext.SetOperationID(context.Background(), last.operationID)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	title, content := n.render(ctx, tasks)
	opts := &options.Opts{
		ConversationID: last.msg.ConversationID,
		MessageID:      last.msg.ID,
		Badge:          len(tasks),
	}
	if err := n.pusher.Push(ctx, []string{msg.Key()}, title, content, opts); err != nil {
		log.ZError(ctx, "offline push failed", err, "userID", msg.Key(), "worker", worker, "triggerID", msg.TriggerID())
		prommetrics.OfflinePushCounter.WithLabelValues("failed").Inc()
		return
	}
	prommetrics.OfflinePushCounter.WithLabelValues("success").Inc()
}

// render 标题为最后一位发送者的昵称，多条合并为计数
func (n *Notifier) render(ctx context.Context, tasks []*task) (string, string) {
	last := tasks[len(tasks)-1].msg
	title := "New message"
	if p, err := n.profiles.GetProfile(ctx, last.SenderID); err == nil && p.DisplayName != "" {
		title = p.DisplayName
	} else if err != nil {
		log.ZDebug(ctx, "sender profile for push", "senderID", last.SenderID, "err", err)
	}
	if len(tasks) == 1 {
		return title, last.Preview()
	}
	return title, fmt.Sprintf("%d new messages", len(tasks))
}
