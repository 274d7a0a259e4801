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

// Package msggateway 客户端长连接网关
// 每条连接对应一个挂载的视图：打开的会话、会话列表、关注视角都挂在连接上，连接关闭时全部拆除
package msggateway

import (
	"context"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/pkg/common/authverify"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// PresenceWriter 用户资料上的在线状态
type PresenceWriter interface {
	SetPresence(ctx context.Context, userID string, online bool, at time.Time) error
}

type Option func(ws *WsServer)

// WithClock 测试中固定时间
func WithClock(now func() time.Time) Option {
	return func(ws *WsServer) {
		ws.now = now
	}
}

// WithStatusConcurrency 在线状态上报的并发数
func WithStatusConcurrency(n int) Option {
	return func(ws *WsServer) {
		ws.statusConcurrency = n
	}
}

type WsServer struct {
	conf              *config.API
	connChan          chan connEvent
	done              chan struct{}
	clients           UserMap
	onlineUserNum     atomic.Int64
	onlineUserConnNum atomic.Int64
	statusConcurrency int

	verifier   *authverify.Verifier
	chat       *chat.Service
	feed       *feed.Service
	online     cache.OnlineCache
	presence   PresenceWriter
	validate   *validator.Validate
	compressor Compressor
	now        func() time.Time
}

func NewWsServer(conf *config.API, verifier *authverify.Verifier, chatSvc *chat.Service, feedSvc *feed.Service,
	online cache.OnlineCache, presence PresenceWriter, opts ...Option) *WsServer {
	ws := &WsServer{
		conf:              conf,
		connChan:          make(chan connEvent, 1000),
		done:              make(chan struct{}),
		clients:           newUserMap(),
		statusConcurrency: 3,
		verifier:          verifier,
		chat:              chatSvc,
		feed:              feedSvc,
		online:            online,
		presence:          presence,
		validate:          validator.New(),
		compressor:        NewGzipCompressor(conf.Api.CompressionLevel),
		now:               time.Now,
	}
	for _, o := range opts {
		o(ws)
	}
	return ws
}

// connEvent 注册与注销共用一个通道，同一连接的注销不会先于注册处理
type connEvent struct {
	client   *Client
	register bool
}

// Run 处理连接注册与注销并上报在线状态，ctx取消后返回
// Run返回后done关闭，之后的注册与注销直接丢弃
func (ws *WsServer) Run(ctx context.Context) {
	defer close(ws.done)
	go ws.ChangeOnlineStatus(ctx, ws.statusConcurrency)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ws.connChan:
			if ev.register {
				ws.registerClient(ev.client)
			} else {
				ws.unregisterClient(ev.client)
			}
		}
	}
}

// Register 网关已停止时返回false
func (ws *WsServer) Register(c *Client) bool {
	select {
	case <-ws.done:
		return false
	default:
	}
	select {
	case ws.connChan <- connEvent{client: c, register: true}:
		return true
	case <-ws.done:
		return false
	}
}

func (ws *WsServer) UnRegister(c *Client) {
	select {
	case ws.connChan <- connEvent{client: c}:
	case <-ws.done:
	}
}

func (ws *WsServer) GetUserAllCons(userID string) ([]*Client, bool) {
	return ws.clients.GetAll(userID)
}

func (ws *WsServer) maxMessageSize() int64 {
	if ws.conf.Gateway.MaxMessageSize > 0 {
		return ws.conf.Gateway.MaxMessageSize
	}
	return maxMessageSize
}

func (ws *WsServer) registerClient(client *Client) {
	if _, userOK := ws.clients.GetAll(client.UserID); !userOK {
		ws.onlineUserNum.Add(1)
		prommetrics.OnlineUserGauge.Inc()
	}
	ws.clients.Set(client.UserID, client)
	ws.onlineUserConnNum.Add(1)
	log.ZDebug(client.connCtx, "user online", "connID", client.ctx.GetConnID(),
		"online user Num", ws.onlineUserNum.Load(), "online user conn Num", ws.onlineUserConnNum.Load())
}

func (ws *WsServer) unregisterClient(client *Client) {
	if ws.clients.DeleteClients(client.UserID, []*Client{client}) {
		ws.onlineUserNum.Add(-1)
		prommetrics.OnlineUserGauge.Dec()
	}
	ws.onlineUserConnNum.Add(-1)
	log.ZDebug(client.connCtx, "user offline", "close reason", client.closedErr,
		"online user Num", ws.onlineUserNum.Load(), "online user conn Num", ws.onlineUserConnNum.Load())
}

// PushSound 给userID在本进程上的连接发送提示音帧
// 正在查看该会话的连接由会话监听负责提示，这里只计数不重复发送
func (ws *WsServer) PushSound(ctx context.Context, userID string, msg *model.Message) int {
	clients, ok := ws.clients.GetAll(userID)
	if !ok {
		return 0
	}
	var n int
	for _, c := range clients {
		if c.closed.Load() {
			continue
		}
		if c.currentConversationID() == msg.ConversationID {
			n++
			continue
		}
		err := c.writeFrame(&OutFrame{Type: FrameSound, Data: &SoundResp{
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID,
			SenderID:       msg.SenderID,
		}})
		if err != nil {
			log.ZWarn(ctx, "push sound failed", err, "userID", userID, "connID", c.ctx.GetConnID())
			continue
		}
		n++
	}
	return n
}

func (ws *WsServer) checkOrigin(r *http.Request) bool {
	origins := ws.conf.Api.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(origins, origin)
}

func httpError(w http.ResponseWriter, err error) {
	code := http.StatusUnauthorized
	switch unwrap := errs.Unwrap(err); {
	case servererrs.ErrConnOverMaxNumLimit.Is(unwrap):
		code = http.StatusServiceUnavailable
	case servererrs.ErrConnArgs.Is(unwrap):
		code = http.StatusBadRequest
	}
	resp := apiresp.ParseError(err)
	http.Error(w, resp.ErrMsg, code)
}

func (ws *WsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connContext := newContext(r)
	ctx := withConnInfo(r.Context(), connContext.GetConnID(), "")

	if maxConn := ws.conf.Gateway.MaxConnNum; maxConn > 0 && ws.onlineUserConnNum.Load() >= maxConn {
		httpError(w, servererrs.ErrConnOverMaxNumLimit.WrapMsg("over max conn num limit"))
		return
	}

	userID, err := ws.verifier.ParseToken(connContext.GetToken())
	if err == nil {
		if declared := connContext.GetUserID(); declared != "" && declared != userID {
			err = servererrs.ErrConnArgs.WrapMsg("token userID mismatch", "sendID", declared)
		}
	}
	upgrader := newWsUpgrader(&ws.conf.Gateway, ws.checkOrigin)
	if err != nil {
		log.ZInfo(ctx, "reject conn", "err", err, "remoteAddr", connContext.GetRemoteAddr())
		if !websocketRequested(r) {
			httpError(w, err)
			return
		}
		if rejectErr := upgrader.Reject(w, r, err); rejectErr != nil {
			log.ZWarn(ctx, "reject conn failed", rejectErr)
		}
		return
	}

	conn, err := upgrader.Upgrade(w, r)
	if err != nil {
		log.ZWarn(ctx, "long connection fails", err)
		return
	}
	client := newClient(connContext, conn, ws, userID)
	log.ZDebug(client.connCtx, "new conn", "connID", connContext.GetConnID(), "compress", client.IsCompress)
	if !ws.Register(client) {
		log.ZInfo(ctx, "gateway stopped, drop conn", "connID", connContext.GetConnID())
		client.close()
		return
	}
	go client.readMessage()
}

func websocketRequested(r *http.Request) bool {
	return r.Header.Get("Upgrade") != "" && r.Header.Get("Sec-Websocket-Key") != ""
}
