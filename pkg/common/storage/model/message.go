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

package model

import (
	"time"
)

// 消息体类型
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// ImagePreviewText 图片消息在会话列表中的摘要文本
const ImagePreviewText = "📷 Photo"

// Message 会话下messages子集合中的一条消息
// CreatedAt由存储端在写入时赋值，客户端不做本地时钟排序
type Message struct {
	ID             string              `firestore:"-" json:"messageID"`
	ConversationID string              `firestore:"-" json:"conversationID"`
	SenderID       string              `firestore:"senderId" json:"senderID"`
	Type           string              `firestore:"type" json:"type"`
	Text           string              `firestore:"text,omitempty" json:"text,omitempty"`
	ImageURL       string              `firestore:"imageUrl,omitempty" json:"imageURL,omitempty"`
	CreatedAt      time.Time           `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	Delivered      bool                `firestore:"delivered" json:"delivered"`
	Seen           bool                `firestore:"seen" json:"seen"`
	SeenAt         *time.Time          `firestore:"seenAt,omitempty" json:"seenAt,omitempty"`
	Reactions      map[string][]string `firestore:"reactions" json:"reactions"`
}

// Preview 生成写入会话lastMessage的摘要
func (m *Message) Preview() string {
	if m.Type == MessageTypeImage {
		return ImagePreviewText
	}
	return m.Text
}

// Clone 深拷贝消息，内存存储和快照分发时使用
func (m *Message) Clone() *Message {
	c := *m
	if m.SeenAt != nil {
		t := *m.SeenAt
		c.SeenAt = &t
	}
	c.Reactions = CloneReactions(m.Reactions)
	return &c
}
