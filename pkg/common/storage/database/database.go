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

// Package database 定义文档存储的访问接口
// 实现位于fsdb（Firestore）、memdb（内存，测试与单机演示）与mgo（仅用户资料）
package database

import (
	"context"
	"time"

	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// 集合名称
const (
	ConversationName = "conversations"
	MessageName      = "messages"
	TypingName       = "typing"
	UserName         = "users"
	PostName         = "posts"
	CommentName      = "comments"
	FollowName       = "follows"
)

// Conversation 会话文档访问接口
type Conversation interface {
	// Take 读取单个会话，不存在时返回ErrRecordNotFound
	Take(ctx context.Context, conversationID string) (*model.Conversation, error)
	// AppendMessage 在同一次原子写入中创建消息，并合并更新会话的参与者、lastMessage、updatedAt
	// 以及对recipientID的未读计数做原子+1
	AppendMessage(ctx context.Context, participants []string, recipientID string, msg *model.Message) error
	// IncrUnread 对userID的未读计数做原子增量，delta可以为负数
	IncrUnread(ctx context.Context, conversationID string, userID string, delta int64) error
	// WatchByUser 监听userID参与的全部会话，按updatedAt倒序
	WatchByUser(ctx context.Context, userID string) (Listener[*model.Conversation], error)
	// Delete 删除会话以及其下的消息与输入状态
	Delete(ctx context.Context, conversationID string) error
}

// Message 消息子集合访问接口
type Message interface {
	Take(ctx context.Context, conversationID string, messageID string) (*model.Message, error)
	// Watch 监听会话下全部消息，按createdAt升序
	Watch(ctx context.Context, conversationID string) (Listener[*model.Message], error)
	// MarkSeen 批量把messageIDs标记为已送达、已读，同时写入seenAt
	MarkSeen(ctx context.Context, conversationID string, messageIDs []string) error
	// Page 按createdAt倒序分页，before为零值时从最新一条开始
	Page(ctx context.Context, conversationID string, before time.Time, limit int) ([]*model.Message, error)
}

// Typing 输入状态访问接口
type Typing interface {
	Set(ctx context.Context, conversationID string, userID string, isTyping bool) error
	// Watch 监听单个(会话, 用户)的输入状态文档，文档不存在时快照为空
	Watch(ctx context.Context, conversationID string, userID string) (Listener[*model.TypingSignal], error)
	// DeleteOlderThan 清理updatedAt早于t的输入状态文档，返回删除条数
	DeleteOlderThan(ctx context.Context, t time.Time) (int, error)
}

// User 用户资料访问接口
type User interface {
	Take(ctx context.Context, userID string) (*model.UserProfile, error)
	// Find 批量读取，不存在的用户被忽略
	Find(ctx context.Context, userIDs []string) ([]*model.UserProfile, error)
	Watch(ctx context.Context, userID string) (Listener[*model.UserProfile], error)
	UpdatePresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error
	Upsert(ctx context.Context, profile *model.UserProfile) error
}

// Reaction 表态的读-改-写事务接口
type Reaction interface {
	// UpdateReactions 在事务中读取target当前的表态映射，交给fn计算新值后整体写回
	// 事务冲突时fn可能被多次调用，fn必须是纯函数
	UpdateReactions(ctx context.Context, target model.ReactionTarget, fn func(reactions map[string][]string) (map[string][]string, error)) (map[string][]string, error)
}

// Post 帖子访问接口
type Post interface {
	Create(ctx context.Context, post *model.Post) error
	Take(ctx context.Context, postID string) (*model.Post, error)
	// Page 按createdAt倒序分页
	Page(ctx context.Context, before time.Time, limit int) ([]*model.Post, error)
	// Delete 删除帖子以及其下的全部评论
	Delete(ctx context.Context, postID string) error
}

// Comment 评论访问接口
type Comment interface {
	// Create 创建评论并对帖子的commentCount原子+1
	Create(ctx context.Context, comment *model.Comment) error
	Take(ctx context.Context, postID string, commentID string) (*model.Comment, error)
	// Find 读取帖子下全部评论，按createdAt升序
	Find(ctx context.Context, postID string) ([]*model.Comment, error)
}

// Follow 关注关系访问接口，重复关注与重复取关都是幂等的
type Follow interface {
	Follow(ctx context.Context, followerID string, followeeID string) error
	Unfollow(ctx context.Context, followerID string, followeeID string) error
	Following(ctx context.Context, followerID string) ([]string, error)
}
