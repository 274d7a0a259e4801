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

package msggateway

import (
	"encoding/json"

	"github.com/openimsdk/tools/errs"
)

// Frame 客户端发来的帧，Data按Type解析
type Frame struct {
	Type  string          `json:"type"`
	ReqID string          `json:"reqID"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutFrame 服务端写出的帧
// ack帧的ReqID与请求一致，Code非0时Msg为错误信息；推送帧ReqID为空
type OutFrame struct {
	Type  string `json:"type"`
	ReqID string `json:"reqID,omitempty"`
	Code  int    `json:"code"`
	Msg   string `json:"msg,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type OpenConversationReq struct {
	PeerID string `json:"peerID" validate:"required"`
}

type SendTextReq struct {
	PeerID string `json:"peerID" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type ReactReq struct {
	ConversationID string `json:"conversationID" validate:"required"`
	MessageID      string `json:"messageID" validate:"required"`
	Emoji          string `json:"emoji" validate:"required"`
}

type ToggleFollowReq struct {
	TargetID string `json:"targetID" validate:"required"`
}

type OpenConversationResp struct {
	ConversationID string `json:"conversationID"`
	Peer           any    `json:"peer"`
}

type ReactResp struct {
	Reactions map[string][]string `json:"reactions"`
}

type FollowResp struct {
	Following []string `json:"following"`
	Followed  *bool    `json:"followed,omitempty"`
}

type TypingResp struct {
	ConversationID string `json:"conversationID"`
	Typing         bool   `json:"typing"`
}

type SoundResp struct {
	ConversationID string `json:"conversationID"`
	MessageID      string `json:"messageID"`
	SenderID       string `json:"senderID"`
}

// decodeData 解析并校验帧数据
func (ws *WsServer) decodeData(frame *Frame, v any) error {
	if len(frame.Data) == 0 {
		return errs.ErrArgs.WrapMsg("frame data is empty", "type", frame.Type)
	}
	if err := json.Unmarshal(frame.Data, v); err != nil {
		return errs.ErrArgs.WrapMsg("frame data is invalid: "+err.Error(), "type", frame.Type)
	}
	if err := ws.validate.Struct(v); err != nil {
		return errs.ErrArgs.WrapMsg(err.Error(), "type", frame.Type)
	}
	return nil
}
