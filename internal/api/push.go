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
	"context"

	"github.com/gin-gonic/gin"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/mcontext"

	"github.com/saloneskills/connect/pkg/common/storage/cache"
)

// PushApi 设备FCM令牌的登记与注销
type PushApi struct {
	tokens cache.PushTokenCache
}

func NewPushApi(tokens cache.PushTokenCache) *PushApi {
	return &PushApi{tokens: tokens}
}

type PushTokenReq struct {
	Token string `json:"token" binding:"required"`
}

func (o *PushApi) SetToken(c *gin.Context) {
	o.handle(c, o.tokens.SetToken)
}

func (o *PushApi) DelToken(c *gin.Context) {
	o.handle(c, func(ctx context.Context, userID, token string) error {
		return o.tokens.DelToken(ctx, userID, token)
	})
}

func (o *PushApi) handle(c *gin.Context, fn func(ctx context.Context, userID, token string) error) {
	var req PushTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	if err := fn(ctx, mcontext.GetOpUserID(ctx), req.Token); err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, nil)
}
