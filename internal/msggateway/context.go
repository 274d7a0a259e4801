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
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openimsdk/tools/mcontext"
	"github.com/openimsdk/tools/utils/encrypt"
)

var connSeq atomic.Uint64

// UserConnContext 握手请求携带的连接参数
type UserConnContext struct {
	Req        *http.Request
	RemoteAddr string // 经过代理时附带X-Forwarded-For
	ConnID     string
}

func newContext(req *http.Request) *UserConnContext {
	remoteAddr := req.RemoteAddr
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		remoteAddr += "_" + forwarded
	}
	seq := connSeq.Add(1)
	return &UserConnContext{
		Req:        req,
		RemoteAddr: remoteAddr,
		ConnID: encrypt.Md5(req.RemoteAddr + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
			"_" + strconv.FormatUint(seq, 10)),
	}
}

func (c *UserConnContext) Query(key string) (string, bool) {
	value := c.Req.URL.Query().Get(key)
	return value, value != ""
}

func (c *UserConnContext) GetHeader(key string) (string, bool) {
	value := c.Req.Header.Get(key)
	return value, value != ""
}

func (c *UserConnContext) GetConnID() string {
	return c.ConnID
}

func (c *UserConnContext) GetRemoteAddr() string {
	return c.RemoteAddr
}

// GetUserID 客户端声明的用户ID，可以为空；非空时必须与令牌一致
func (c *UserConnContext) GetUserID() string {
	return c.Req.URL.Query().Get(WsUserID)
}

func (c *UserConnContext) GetOperationID() string {
	return c.Req.URL.Query().Get(OperationID)
}

// GetToken 优先取query中的token，浏览器无法给websocket握手设置请求头
func (c *UserConnContext) GetToken() string {
	if token, ok := c.Query(Token); ok {
		return token
	}
	if auth, ok := c.GetHeader(authorizationHeader); ok {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func (c *UserConnContext) GetCompression() bool {
	if compression, ok := c.Query(Compression); ok && compression == GzipCompressionProtocol {
		return true
	}
	compression, ok := c.GetHeader(Compression)
	return ok && compression == GzipCompressionProtocol
}

// withConnInfo 把操作ID和用户ID写入ctx，日志里据此串联一个连接上的全部操作
func withConnInfo(ctx context.Context, operationID, userID string) context.Context {
	ctx = mcontext.SetOperationID(ctx, operationID)
	return mcontext.WithOpUserIDContext(ctx, userID)
}
