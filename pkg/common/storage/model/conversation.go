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

// Package model 定义聊天与动态流的持久化文档结构
// 每个字段同时携带firestore与json标签，用户资料额外携带bson标签（mongo资料库）
package model

import (
	"time"
)

// LastMessage 会话上冗余存储的最后一条消息摘要，用于会话列表展示
type LastMessage struct {
	Text      string    `firestore:"text" json:"text"`
	SenderID  string    `firestore:"senderId" json:"senderID"`
	Type      string    `firestore:"type" json:"type"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// Conversation 单聊会话文档
// 文档ID为两个参与者ID按字典序拼接的对称ID，参与者双方共同拥有该文档
type Conversation struct {
	ID           string           `firestore:"-" json:"conversationID"`
	Participants []string         `firestore:"participants" json:"participants"`
	LastMessage  *LastMessage     `firestore:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	UnreadCount  map[string]int64 `firestore:"unreadCount" json:"unreadCount"`
	UpdatedAt    time.Time        `firestore:"updatedAt,serverTimestamp" json:"updatedAt"`
}

// Counterpart 返回会话中除userID以外的另一位参与者
// 参与者集合中不包含userID，或者不存在另一位参与者时返回false
func (c *Conversation) Counterpart(userID string) (string, bool) {
	var (
		self  bool
		other string
	)
	for _, id := range c.Participants {
		if id == userID {
			self = true
			continue
		}
		if other == "" {
			other = id
		}
	}
	if !self || other == "" {
		return "", false
	}
	return other, true
}

// HasParticipant 判断userID是否为会话参与者
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Unread 返回userID在该会话中的未读计数
func (c *Conversation) Unread(userID string) int64 {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userID]
}
