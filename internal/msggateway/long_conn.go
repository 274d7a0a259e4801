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
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"

	"github.com/saloneskills/connect/pkg/common/config"
)

// maxCloseReason websocket关闭帧的原因最多123字节
const maxCloseReason = 120

// LongConn 单条客户端长连接
type LongConn interface {
	Close() error
	// WriteMessage 控制帧可以与数据帧并发写，数据帧需要调用方串行
	WriteMessage(messageType int, data []byte, timeout time.Duration) error
	ReadMessage() (int, []byte, error)
	SetReadDeadline(timeout time.Duration) error
	SetReadLimit(limit int64)
	SetPongHandler(handler func(appData string) error)
	SetPingHandler(handler func(appData string) error)
}

type wsUpgrader struct {
	upgrader websocket.Upgrader
}

func newWsUpgrader(conf *config.Gateway, checkOrigin func(r *http.Request) bool) *wsUpgrader {
	u := websocket.Upgrader{
		HandshakeTimeout: conf.HandshakeTimeout,
		CheckOrigin:      checkOrigin,
	}
	if conf.WriteBufferSize > 0 {
		u.WriteBufferSize = conf.WriteBufferSize
	}
	return &wsUpgrader{upgrader: u}
}

// Upgrade 失败时gorilla已经写回了HTTP错误
func (u *wsUpgrader) Upgrade(w http.ResponseWriter, r *http.Request) (LongConn, error) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errs.WrapMsg(err, "websocket upgrade failed", "remoteAddr", r.RemoteAddr)
	}
	return &gorillaConn{conn: conn}, nil
}

// Reject 握手成功后写一个notice帧并以1008关闭，浏览器拿不到握手阶段的HTTP状态码
func (u *wsUpgrader) Reject(w http.ResponseWriter, r *http.Request, cause error) error {
	conn, err := u.Upgrade(w, r)
	if err != nil {
		return err
	}
	defer conn.Close()
	resp := apiresp.ParseError(cause)
	data, err := json.Marshal(&OutFrame{Type: FrameNotice, Code: resp.ErrCode, Msg: resp.ErrMsg})
	if err != nil {
		return errs.WrapMsg(err, "marshal reject frame failed")
	}
	if err := conn.WriteMessage(MessageText, data, writeWait); err != nil {
		return err
	}
	reason := resp.ErrMsg
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	return conn.WriteMessage(CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), writeWait)
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (g *gorillaConn) Close() error {
	return g.conn.Close()
}

func (g *gorillaConn) WriteMessage(messageType int, data []byte, timeout time.Duration) error {
	if timeout <= 0 {
		return errs.New("write timeout must be greater than 0").Wrap()
	}
	deadline := time.Now().Add(timeout)
	switch messageType {
	case CloseMessage, PingMessage, PongMessage:
		if err := g.conn.WriteControl(messageType, data, deadline); err != nil {
			return errs.WrapMsg(err, "write control frame failed", "messageType", messageType)
		}
		return nil
	}
	if err := g.conn.SetWriteDeadline(deadline); err != nil {
		return errs.WrapMsg(err, "set write deadline failed")
	}
	if err := g.conn.WriteMessage(messageType, data); err != nil {
		return errs.WrapMsg(err, "write frame failed", "messageType", messageType)
	}
	return nil
}

func (g *gorillaConn) ReadMessage() (int, []byte, error) {
	return g.conn.ReadMessage()
}

func (g *gorillaConn) SetReadDeadline(timeout time.Duration) error {
	return g.conn.SetReadDeadline(time.Now().Add(timeout))
}

func (g *gorillaConn) SetReadLimit(limit int64) {
	g.conn.SetReadLimit(limit)
}

func (g *gorillaConn) SetPongHandler(handler func(appData string) error) {
	g.conn.SetPongHandler(handler)
}

func (g *gorillaConn) SetPingHandler(handler func(appData string) error) {
	g.conn.SetPingHandler(handler)
}
