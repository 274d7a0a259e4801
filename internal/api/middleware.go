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

package api

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/mcontext"
	"github.com/openimsdk/tools/utils/idutil"
	"golang.org/x/time/rate"

	"github.com/saloneskills/connect/pkg/common/authverify"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/servererrs"
)

const operationIDHeader = "operationID"

// ginParseOperationID 请求头没有operationID时生成一个，并回写到响应头
func ginParseOperationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		operationID := c.GetHeader(operationIDHeader)
		if operationID == "" {
			operationID = idutil.OperationIDGenerator()
		}
		c.Header(operationIDHeader, operationID)
		c.Request = c.Request.WithContext(mcontext.SetOperationID(c.Request.Context(), operationID))
		c.Next()
	}
}

// ginParseToken 校验Bearer令牌，用户ID写入请求ctx
func ginParseToken(v *authverify.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.ParseHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiresp.ParseError(err))
			return
		}
		c.Request = c.Request.WithContext(mcontext.WithOpUserIDContext(c.Request.Context(), userID))
		c.Next()
	}
}

// limiterPool 按用户限流，令牌桶不回收，用户数量有限
type limiterPool struct {
	enable bool
	rps    rate.Limit
	burst  int

	mu sync.Mutex
	m  map[string]*rate.Limiter
}

func newLimiterPool(conf *config.API) *limiterPool {
	rl := conf.RateLimit
	return &limiterPool{
		enable: rl.Enable && rl.RequestsPerSecond > 0,
		rps:    rate.Limit(rl.RequestsPerSecond),
		burst:  max(rl.Burst, 1),
		m:      make(map[string]*rate.Limiter),
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.enable {
			c.Next()
			return
		}
		userID := mcontext.GetOpUserID(c.Request.Context())
		if !p.get(userID).Allow() {
			err := servererrs.ErrRateLimit.WrapMsg("too many requests", "userID", userID)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apiresp.ParseError(err))
			return
		}
		c.Next()
	}
}

func prommetricsGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		prommetrics.HttpCallCounter.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
