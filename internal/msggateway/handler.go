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
	"context"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// opOfFrame 帧类型对应的提示操作名
func opOfFrame(frameType string) string {
	switch frameType {
	case FrameOpenConversation, FrameCloseConversation:
		return chat.OpOpenConversation
	case FrameSendText:
		return chat.OpSendMessage
	case FrameTyping:
		return chat.OpTyping
	case FrameReact:
		return chat.OpReact
	case FrameSubscribeFeedFollow, FrameToggleFollow:
		return chat.OpFollow
	default:
		return chat.OpSubscribe
	}
}

func (c *Client) dispatch(ctx context.Context, frame *Frame) (any, error) {
	ws := c.server
	switch frame.Type {
	case FrameOpenConversation:
		var req OpenConversationReq
		if err := ws.decodeData(frame, &req); err != nil {
			return nil, err
		}
		return c.openConversation(req.PeerID)
	case FrameCloseConversation:
		c.session.Close(c.connCtx)
		return nil, nil
	case FrameSendText:
		var req SendTextReq
		if err := ws.decodeData(frame, &req); err != nil {
			return nil, err
		}
		return ws.chat.SendText(ctx, c.UserID, req.PeerID, req.Text)
	case FrameTyping:
		sess := c.session.Current()
		if sess == nil {
			return nil, errs.ErrArgs.WrapMsg("no open conversation")
		}
		return nil, sess.Keystroke(ctx)
	case FrameReact:
		var req ReactReq
		if err := ws.decodeData(frame, &req); err != nil {
			return nil, err
		}
		reactions, err := ws.chat.React(ctx, c.UserID, req.ConversationID, req.MessageID, req.Emoji)
		if err != nil {
			return nil, err
		}
		return &ReactResp{Reactions: reactions}, nil
	case FrameSubscribeConversations:
		c.subscribeConversations()
		return nil, nil
	case FrameUnsubscribeConversations:
		c.unsubscribeConversations()
		return nil, nil
	case FrameSubscribeFeedFollow:
		viewer, err := c.followViewer(true)
		if err != nil {
			return nil, err
		}
		return &FollowResp{Following: viewer.Following()}, nil
	case FrameToggleFollow:
		var req ToggleFollowReq
		if err := ws.decodeData(frame, &req); err != nil {
			return nil, err
		}
		viewer, err := c.followViewer(false)
		if err != nil {
			return nil, err
		}
		followed, err := viewer.Toggle(ctx, req.TargetID)
		if err != nil {
			return nil, err
		}
		return &FollowResp{Following: viewer.Following(), Followed: &followed}, nil
	default:
		return nil, servererrs.ErrUnknownFrame.WrapMsg("unknown frame type", "type", frame.Type)
	}
}

// openConversation 以不同的对方打开时前一个会话被关闭
func (c *Client) openConversation(peerID string) (*OpenConversationResp, error) {
	conversationID := chat.ConversationID(c.UserID, peerID)
	sess, err := c.session.Open(c.connCtx, c.server.chat, c.UserID, peerID, chat.SessionHandler{
		OnMessages: func(ctx context.Context, update *chat.MessageUpdate) {
			c.push(ctx, FrameMessages, update)
		},
		OnNotify: func(ctx context.Context, msg *model.Message) {
			c.push(ctx, FrameSound, &SoundResp{ConversationID: msg.ConversationID, MessageID: msg.ID, SenderID: msg.SenderID})
		},
		OnTyping: func(ctx context.Context, typing bool) {
			c.push(ctx, FramePeerTyping, &TypingResp{ConversationID: conversationID, Typing: typing})
		},
		OnPeerStatus: func(ctx context.Context, peer *model.UserProfile) {
			c.push(ctx, FramePeerStatus, peer)
		},
		OnNotice: func(ctx context.Context, notice chat.Notice) {
			if err := c.writeNotice(notice); err != nil {
				log.ZWarn(ctx, "push notice failed", err, "userID", c.UserID)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return &OpenConversationResp{ConversationID: sess.ConversationID(), Peer: sess.Peer()}, nil
}

// subscribeConversations 重复订阅时复用已有的监听
func (c *Client) subscribeConversations() {
	c.subLock.Lock()
	defer c.subLock.Unlock()
	if c.convSub != nil {
		return
	}
	var sub *chat.Subscription
	sub = c.server.chat.SubscribeConversations(c.connCtx, c.UserID, chat.ConversationHandler{
		OnUpdate: func(ctx context.Context, views []*chat.ConversationView) {
			c.push(ctx, FrameConversations, views)
		},
		OnError: func(ctx context.Context, err error) {
			log.ZWarn(ctx, "conversation list listener failed", err, "userID", c.UserID)
			if err := c.writeNotice(chat.NewNotice(chat.OpSubscribe, err, true)); err != nil {
				log.ZWarn(ctx, "push notice failed", err, "userID", c.UserID)
			}
			c.subLock.Lock()
			if c.convSub == sub {
				c.convSub = nil
			}
			c.subLock.Unlock()
		},
	})
	c.convSub = sub
}

func (c *Client) unsubscribeConversations() {
	c.subLock.Lock()
	defer c.subLock.Unlock()
	if c.convSub != nil {
		c.convSub.Unsubscribe()
		c.convSub = nil
	}
}

// followViewer reload为true时重新读取关注列表
func (c *Client) followViewer(reload bool) (*feed.Viewer, error) {
	c.subLock.Lock()
	defer c.subLock.Unlock()
	if c.viewer != nil && !reload {
		return c.viewer, nil
	}
	viewer, err := c.server.feed.NewViewer(c.connCtx, c.UserID)
	if err != nil {
		return nil, err
	}
	c.viewer = viewer
	return viewer, nil
}
