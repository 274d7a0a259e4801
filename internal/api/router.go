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

// Package api REST接口，与长连接网关挂在同一个gin引擎上
package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/pkg/common/authverify"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
)

// DefaultMaxImageBytes 上传图片大小上限
const DefaultMaxImageBytes = 10 << 20

// Deps 路由依赖，Gateway与Registry为nil时不挂载对应路由
type Deps struct {
	Chat          *chat.Service
	Feed          *feed.Service
	PushTokens    cache.PushTokenCache
	Verifier      *authverify.Verifier
	Gateway       http.Handler
	Registry      *prometheus.Registry
	MaxImageBytes int64
}

// NewGinRouter 注册全部路由
func NewGinRouter(conf *config.API, deps *Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if conf.Api.CompressionLevel > 0 {
		r.Use(gzip.Gzip(conf.Api.CompressionLevel, gzip.WithExcludedPaths([]string{"/ws"})))
	}
	r.Use(gin.Recovery(), prommetricsGin(), ginParseOperationID())

	maxImage := deps.MaxImageBytes
	if maxImage <= 0 {
		maxImage = DefaultMaxImageBytes
	}
	r.MaxMultipartMemory = maxImage

	r.GET("/healthz", healthz)
	if deps.Registry != nil && conf.Api.PrometheusEnable {
		r.GET("/metrics", gin.WrapH(prommetrics.Handler(deps.Registry)))
	}
	if deps.Gateway != nil {
		// 网关在握手时自行校验令牌
		r.GET("/ws", gin.WrapH(deps.Gateway))
	}

	authed := r.Group("/", ginParseToken(deps.Verifier), newLimiterPool(conf).handler())

	ca := NewChatApi(deps.Chat, maxImage)
	{
		chatGroup := authed.Group("/chat")
		chatGroup.POST("/send", ca.SendText)
		chatGroup.POST("/image", ca.SendImage)
		chatGroup.POST("/react", ca.React)
		chatGroup.POST("/open", ca.OpenConversation)
		chatGroup.DELETE("/conversations/:id", ca.DeleteConversation)
		chatGroup.GET("/conversations/:id/messages", ca.History)
	}

	fa := NewFeedApi(deps.Feed, maxImage)
	{
		feedGroup := authed.Group("/feed")
		feedGroup.POST("/posts", fa.CreatePost)
		feedGroup.GET("/posts", fa.ListPosts)
		feedGroup.DELETE("/posts/:id", fa.DeletePost)
		feedGroup.POST("/posts/:id/comments", fa.CreateComment)
		feedGroup.GET("/posts/:id/comments", fa.ListComments)
		feedGroup.POST("/react", fa.React)
		feedGroup.POST("/follow", fa.Follow)
		feedGroup.POST("/unfollow", fa.Unfollow)
		feedGroup.GET("/following", fa.Following)
	}

	if deps.PushTokens != nil {
		pa := NewPushApi(deps.PushTokens)
		pushGroup := authed.Group("/push")
		pushGroup.POST("/token", pa.SetToken)
		pushGroup.DELETE("/token", pa.DelToken)
	}
	return r
}

// NewHandler 在gin外层包一层CORS，预检请求不进入路由
func NewHandler(conf *config.API, engine *gin.Engine) http.Handler {
	origins := conf.Api.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "operationID"},
		AllowCredentials: true,
	}).Handler(engine)
}
