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
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/servererrs"
)

// NoticeLevel 提示级别
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice 非阻塞的界面提示
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Op      string      `json:"op"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
}

// 出错的操作
const (
	OpOpenConversation   = "open_conversation"
	OpSendMessage        = "send_message"
	OpMarkSeen           = "mark_seen"
	OpClearUnread        = "clear_unread"
	OpTyping             = "typing"
	OpReact              = "react"
	OpDeleteConversation = "delete_conversation"
	OpSubscribe          = "subscribe"
	OpFollow             = "follow"
)

// IsValidationError 参数校验失败或引用的记录不存在
func IsValidationError(err error) bool {
	unwrap := errs.Unwrap(err)
	return errs.ErrArgs.Is(unwrap) || errs.ErrRecordNotFound.Is(unwrap) ||
		errs.ErrNoPermission.Is(unwrap) || servererrs.ErrNotParticipant.Is(unwrap)
}

// NewNotice 把错误翻译为界面提示
// 校验类错误为info；订阅（监听）错误为warning；其余写入错误为error
func NewNotice(op string, err error, subscription bool) Notice {
	level := NoticeError
	switch {
	case IsValidationError(err):
		level = NoticeInfo
	case subscription:
		level = NoticeWarning
	}
	resp := apiresp.ParseError(err)
	return Notice{Level: level, Op: op, Code: resp.ErrCode, Message: resp.ErrMsg}
}
