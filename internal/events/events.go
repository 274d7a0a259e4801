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

// Package events 把聊天与动态流中的关键写操作发布到Kafka，供推荐、统计等下游消费
// 事件发布是尽力而为的，失败只记录日志，不影响用户操作
package events

import (
	"context"
	"time"

	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"
)

// 事件类型
const (
	TypeMessageSent         = "message.sent"
	TypeMessagesSeen        = "messages.seen"
	TypeReactionToggled     = "reaction.toggled"
	TypeConversationDeleted = "conversation.deleted"
	TypePostCreated         = "post.created"
	TypePostDeleted         = "post.deleted"
	TypeCommentCreated      = "comment.created"
	TypeFollowChanged       = "follow.changed"
)

// Event 事件体，按Key分区，同一会话（或帖子）的事件保持顺序
type Event struct {
	Type        string         `json:"type"`
	Key         string         `json:"key"`
	ActorID     string         `json:"actorID"`
	OperationID string         `json:"operationID,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	At          time.Time      `json:"at"`
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// Emit 补齐事件公共字段后发布，失败只记录告警
func Emit(ctx context.Context, p Publisher, ev *Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if ev.OperationID == "" {
		ev.OperationID = mcontext.GetOperationID(ctx)
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.ZWarn(ctx, "publish event failed", err, "type", ev.Type, "key", ev.Key)
	}
}

// NewNopPublisher Kafka关闭时使用
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, ev *Event) error {
	log.ZDebug(ctx, "event dropped", "type", ev.Type, "key", ev.Key)
	return nil
}

func (nopPublisher) Close() error { return nil }
