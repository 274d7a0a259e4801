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
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"golang.org/x/time/rate"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/pkg/common/servererrs"
)

var (
	ErrConnClosed   = errs.New("conn has closed")
	ErrClientClosed = errs.New("client actively close the connection")
	ErrPanic        = errs.New("panic error")
)

// Client 一条客户端长连接，也是一个挂载的视图：至多一个打开的会话、一个会话列表订阅和一个关注视角
type Client struct {
	w          sync.Mutex // 串行化写，回调来自多个监听协程
	conn       LongConn
	UserID     string
	IsCompress bool
	ctx        *UserConnContext
	server     *WsServer

	// connCtx 连接级ctx，监听协程挂在它下面，连接关闭时取消
	connCtx context.Context
	cancel  context.CancelFunc

	closed    atomic.Bool
	closedErr error
	limiter   *rate.Limiter

	session chat.SessionSlot

	subLock sync.Mutex
	convSub *chat.Subscription
	viewer  *feed.Viewer
}

func newClient(ctx *UserConnContext, conn LongConn, server *WsServer, userID string) *Client {
	c := &Client{
		conn:       conn,
		UserID:     userID,
		IsCompress: ctx.GetCompression(),
		ctx:        ctx,
		server:     server,
	}
	operationID := ctx.GetOperationID()
	if operationID == "" {
		operationID = ctx.GetConnID()
	}
	c.connCtx, c.cancel = context.WithCancel(withConnInfo(context.Background(), operationID, userID))
	if rl := server.conf.RateLimit; rl.Enable && rl.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), max(rl.Burst, 1))
	}
	return c
}

func (c *Client) pingHandler(appData string) error {
	if err := c.conn.SetReadDeadline(pongWait); err != nil {
		return err
	}
	return c.writeControl(PongMessage, []byte(appData))
}

func (c *Client) pongHandler(_ string) error {
	return c.conn.SetReadDeadline(pongWait)
}

// readMessage 读循环，返回即关闭连接
func (c *Client) readMessage() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.ZPanic(c.connCtx, "socket have panic err:", errs.ErrPanic(r))
		}
		c.close()
	}()

	c.conn.SetReadLimit(c.server.maxMessageSize())
	_ = c.conn.SetReadDeadline(pongWait)
	c.conn.SetPongHandler(c.pongHandler)
	c.conn.SetPingHandler(c.pingHandler)
	go c.activeHeartbeat()

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			log.ZDebug(c.connCtx, "readMessage", "err", err, "messageType", messageType)
			c.closedErr = err
			return
		}
		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}
		_ = c.conn.SetReadDeadline(pongWait)
		switch messageType {
		case MessageBinary, MessageText:
			if err := c.handleMessage(message); err != nil {
				c.closedErr = err
				return
			}
		case CloseMessage:
			c.closedErr = ErrClientClosed
			return
		}
	}
}

// handleMessage 只有写失败才返回错误，帧本身的错误作为ack或notice回给客户端
func (c *Client) handleMessage(message []byte) error {
	if c.IsCompress {
		var err error
		message, err = c.server.compressor.Decompress(message)
		if err != nil {
			return c.writeNotice(chat.NewNotice(chat.OpSubscribe, servererrs.ErrConnArgs.WrapMsg(err.Error()), false))
		}
	}
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		log.ZDebug(c.connCtx, "invalid frame", "err", err, "len", len(message))
		return c.writeNotice(chat.NewNotice(chat.OpSubscribe, servererrs.ErrConnArgs.WrapMsg("frame is not valid json"), false))
	}
	if frame.Type == FramePing {
		return c.writeFrame(&OutFrame{Type: FramePong, ReqID: frame.ReqID})
	}

	operationID := frame.ReqID
	if operationID == "" {
		operationID = c.ctx.GetConnID()
	}
	ctx := withConnInfo(c.connCtx, operationID, c.UserID)
	log.ZDebug(ctx, "gateway req frame", "type", frame.Type, "reqID", frame.ReqID)

	var (
		resp any
		err  error
	)
	if c.limiter != nil && !c.limiter.Allow() {
		err = servererrs.ErrRateLimit.WrapMsg("too many frames", "userID", c.UserID)
	} else {
		resp, err = c.dispatch(ctx, &frame)
	}
	return c.replyMessage(ctx, &frame, err, resp)
}

func (c *Client) replyMessage(ctx context.Context, frame *Frame, err error, resp any) error {
	out := &OutFrame{Type: FrameAck, ReqID: frame.ReqID, Data: resp}
	if err != nil {
		errResp := apiresp.ParseError(err)
		out.Code = errResp.ErrCode
		out.Msg = errResp.ErrMsg
		out.Data = chat.NewNotice(opOfFrame(frame.Type), err, false)
		log.ZWarn(ctx, "gateway frame failed", err, "type", frame.Type, "reqID", frame.ReqID)
	}
	if err := c.writeFrame(out); err != nil {
		log.ZWarn(ctx, "write ack failed", err, "type", frame.Type)
		return err
	}
	return nil
}

// close 幂等，撤销这个视图上的全部监听
func (c *Client) close() {
	c.w.Lock()
	if c.closed.Load() {
		c.w.Unlock()
		return
	}
	c.closed.Store(true)
	_ = c.conn.Close()
	c.w.Unlock()

	c.session.Close(c.connCtx)
	c.unsubscribeConversations()
	c.cancel()
	c.server.UnRegister(c)
}

func (c *Client) writeFrame(out *OutFrame) error {
	if c.closed.Load() {
		return nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return errs.WrapMsg(err, "marshal frame failed", "type", out.Type)
	}
	messageType := MessageText
	if c.IsCompress {
		if data, err = c.server.compressor.Compress(data); err != nil {
			return err
		}
		messageType = MessageBinary
	}
	c.w.Lock()
	defer c.w.Unlock()
	if c.closed.Load() {
		return nil
	}
	return c.conn.WriteMessage(messageType, data, writeWait)
}

// push 监听回调里写帧，写失败只记录日志，读循环会发现断开的连接
func (c *Client) push(ctx context.Context, frameType string, data any) {
	if err := c.writeFrame(&OutFrame{Type: frameType, Data: data}); err != nil {
		log.ZWarn(ctx, "push frame failed", err, "type", frameType, "userID", c.UserID)
	}
}

// writeNotice 提示帧，错误码同时放在帧头
func (c *Client) writeNotice(notice chat.Notice) error {
	return c.writeFrame(&OutFrame{Type: FrameNotice, Code: notice.Code, Msg: notice.Message, Data: notice})
}

// writeControl 控制帧不需要持有写锁
func (c *Client) writeControl(messageType int, data []byte) error {
	if c.closed.Load() {
		return nil
	}
	return c.conn.WriteMessage(messageType, data, writeWait)
}

// activeHeartbeat 服务端主动ping，浏览器不会主动发ping
func (c *Client) activeHeartbeat() {
	defer func() {
		if r := recover(); r != nil {
			log.ZPanic(c.connCtx, "activeHeartbeat Panic", errs.ErrPanic(r))
		}
	}()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.writeControl(PingMessage, nil); err != nil {
				log.ZWarn(c.connCtx, "send Ping Message error.", err)
				return
			}
		case <-c.connCtx.Done():
			return
		}
	}
}

// currentConversationID 当前打开的会话，没有时为空
func (c *Client) currentConversationID() string {
	if sess := c.session.Current(); sess != nil {
		return sess.ConversationID()
	}
	return ""
}
