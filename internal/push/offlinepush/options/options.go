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

package options

// Opts 离线推送的附加信息
type Opts struct {
	ConversationID string
	MessageID      string
	// Sound iOS提示音文件名，空为默认提示音
	Sound string
	// Badge 非零时设置iOS角标
	Badge int
}

// Data 随通知一起下发给客户端的数据，客户端据此打开对应会话
func (o *Opts) Data() map[string]string {
	if o == nil {
		return nil
	}
	return map[string]string{
		"conversationID": o.ConversationID,
		"messageID":      o.MessageID,
	}
}
