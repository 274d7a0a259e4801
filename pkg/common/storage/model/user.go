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

// 用户角色
const (
	RoleYouth   = "youth"
	RoleManager = "manager"
)

// UserProfile 用户资料，本层只读取展示相关字段，在线状态由网关维护
type UserProfile struct {
	UserID      string    `firestore:"-" bson:"user_id" json:"userID"`
	DisplayName string    `firestore:"displayName" bson:"display_name" json:"displayName"`
	AvatarURL   string    `firestore:"avatarUrl" bson:"avatar_url" json:"avatarURL"`
	Headline    string    `firestore:"headline" bson:"headline" json:"headline"`
	Role        string    `firestore:"role" bson:"role" json:"role"`
	Skills      []string  `firestore:"skills" bson:"skills" json:"skills"`
	Online      bool      `firestore:"online" bson:"online" json:"online"`
	LastSeen    time.Time `firestore:"lastSeen" bson:"last_seen" json:"lastSeen"`
	CreatedAt   time.Time `firestore:"createdAt" bson:"create_time" json:"createdAt"`
}
