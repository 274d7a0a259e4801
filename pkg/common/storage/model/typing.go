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

// TypingSignal 输入状态信号，按(会话, 用户)为键存放在typing子集合
// 每次更新都会覆盖，读取方按时间戳自行判断是否过期，存储端不做TTL
type TypingSignal struct {
	ConversationID string    `firestore:"-" json:"conversationID"`
	UserID         string    `firestore:"-" json:"userID"`
	IsTyping       bool      `firestore:"isTyping" json:"isTyping"`
	UpdatedAt      time.Time `firestore:"updatedAt,serverTimestamp" json:"updatedAt"`
}
