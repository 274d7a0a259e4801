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
	"github.com/openimsdk/tools/errs"
)

// ConversationIDSeparator 会话ID中两个用户ID之间的分隔符
const ConversationIDSeparator = "_"

// ConversationID 两个用户的对称会话ID：按字典序排序后拼接
// 双方各自计算得到相同的ID，不需要任何协调
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ConversationIDSeparator + b
}

// ValidatePeers 校验能否在userID与peerID之间建立会话
func ValidatePeers(userID, peerID string) error {
	if userID == "" || peerID == "" {
		return errs.ErrArgs.WrapMsg("userID and peerID are required", "userID", userID, "peerID", peerID)
	}
	if userID == peerID {
		return errs.ErrArgs.WrapMsg("cannot start a conversation with yourself", "userID", userID)
	}
	return nil
}
