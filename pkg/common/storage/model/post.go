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

// Post 动态流中的一条帖子
type Post struct {
	ID           string              `firestore:"-" json:"postID"`
	AuthorID     string              `firestore:"authorId" json:"authorID"`
	Body         string              `firestore:"body" json:"body"`
	ImageURL     string              `firestore:"imageUrl,omitempty" json:"imageURL,omitempty"`
	CreatedAt    time.Time           `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	Reactions    map[string][]string `firestore:"reactions" json:"reactions"`
	CommentCount int64               `firestore:"commentCount" json:"commentCount"`
}

// Comment 帖子下的评论，ParentID为空表示顶层评论
// 嵌套只有一层：回复的回复会挂到同一个顶层评论下
type Comment struct {
	ID        string              `firestore:"-" json:"commentID"`
	PostID    string              `firestore:"-" json:"postID"`
	AuthorID  string              `firestore:"authorId" json:"authorID"`
	Body      string              `firestore:"body" json:"body"`
	ParentID  string              `firestore:"parentId,omitempty" json:"parentID,omitempty"`
	CreatedAt time.Time           `firestore:"createdAt,serverTimestamp" json:"createdAt"`
	Reactions map[string][]string `firestore:"reactions" json:"reactions"`
}

// Follow 关注关系
type Follow struct {
	FollowerID string    `firestore:"followerId" json:"followerID"`
	FolloweeID string    `firestore:"followeeId" json:"followeeID"`
	CreatedAt  time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}
