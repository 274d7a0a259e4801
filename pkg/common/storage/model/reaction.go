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

// 可以被表态的对象类型
const (
	ReactionTargetMessage = "message"
	ReactionTargetPost    = "post"
	ReactionTargetComment = "comment"
)

// ReactionTarget 表态对象定位
// message: ParentID为会话ID；comment: ParentID为帖子ID；post: ParentID为空
type ReactionTarget struct {
	Kind     string `json:"kind" validate:"required,oneof=message post comment"`
	ParentID string `json:"parentID"`
	ID       string `json:"id" validate:"required"`
}

// CloneReactions 深拷贝表态映射
func CloneReactions(reactions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(reactions))
	for emoji, users := range reactions {
		out[emoji] = append([]string(nil), users...)
	}
	return out
}
