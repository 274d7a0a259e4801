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

import "time"

// 握手参数
const (
	WsUserID                = "sendID"
	Token                   = "token"
	Compression             = "compression"
	GzipCompressionProtocol = "gzip"
	OperationID             = "operationID"
	authorizationHeader     = "Authorization"
)

// 客户端帧类型
const (
	FrameOpenConversation         = "open_conversation"
	FrameCloseConversation        = "close_conversation"
	FrameSendText                 = "send_text"
	FrameTyping                   = "typing"
	FrameReact                    = "react"
	FrameSubscribeConversations   = "subscribe_conversations"
	FrameUnsubscribeConversations = "unsubscribe_conversations"
	FrameSubscribeFeedFollow      = "subscribe_feed_follow"
	FrameToggleFollow             = "toggle_follow"
	FramePing                     = "ping"
)

// 服务端帧类型
const (
	FrameMessages      = "messages"
	FrameConversations = "conversations"
	FramePeerTyping    = "typing"
	FramePeerStatus    = "peer_status"
	FrameSound         = "sound"
	FrameNotice        = "notice"
	FrameAck           = "ack"
	FramePong          = "pong"
)

// websocket消息类型，与gorilla/websocket取值一致
const (
	MessageText   = 1
	MessageBinary = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)

const (
	// 写超时
	writeWait = 10 * time.Second

	// 读超时，期间必须收到任意帧或pong
	pongWait = 30 * time.Second

	// 服务端主动ping的周期，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 默认单帧上限
	maxMessageSize = 51200
)
