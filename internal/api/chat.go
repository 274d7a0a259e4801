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
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/mcontext"

	"github.com/saloneskills/connect/internal/chat"
)

type ChatApi struct {
	svc           *chat.Service
	maxImageBytes int64
}

func NewChatApi(svc *chat.Service, maxImageBytes int64) *ChatApi {
	return &ChatApi{svc: svc, maxImageBytes: maxImageBytes}
}

type SendTextReq struct {
	PeerID string `json:"peerID" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type OpenConversationReq struct {
	PeerID string `json:"peerID" binding:"required"`
}

type ReactMessageReq struct {
	ConversationID string `json:"conversationID" binding:"required"`
	MessageID      string `json:"messageID" binding:"required"`
	Emoji          string `json:"emoji" binding:"required"`
}

func (o *ChatApi) SendText(c *gin.Context) {
	var req SendTextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	msg, err := o.svc.SendText(ctx, mcontext.GetOpUserID(ctx), req.PeerID, req.Text)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, msg)
}

// SendImage multipart表单：peerID + image文件
func (o *ChatApi) SendImage(c *gin.Context) {
	peerID := c.PostForm("peerID")
	if peerID == "" {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg("peerID is required"))
		return
	}
	data, err := readFormImage(c, "image", o.maxImageBytes)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	ctx := c.Request.Context()
	msg, err := o.svc.SendImage(ctx, mcontext.GetOpUserID(ctx), peerID, data)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, msg)
}

func (o *ChatApi) OpenConversation(c *gin.Context) {
	var req OpenConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	conversationID, peer, err := o.svc.OpenConversation(ctx, mcontext.GetOpUserID(ctx), req.PeerID)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"conversationID": conversationID, "peer": peer})
}

func (o *ChatApi) React(c *gin.Context) {
	var req ReactMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	reactions, err := o.svc.React(ctx, mcontext.GetOpUserID(ctx), req.ConversationID, req.MessageID, req.Emoji)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"reactions": reactions})
}

func (o *ChatApi) DeleteConversation(c *gin.Context) {
	ctx := c.Request.Context()
	if err := o.svc.DeleteConversation(ctx, mcontext.GetOpUserID(ctx), c.Param("id")); err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, nil)
}

// History query参数：before（RFC3339，可选）、limit（可选）
func (o *ChatApi) History(c *gin.Context) {
	before, limit, err := parsePage(c)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	ctx := c.Request.Context()
	msgs, err := o.svc.History(ctx, mcontext.GetOpUserID(ctx), c.Param("id"), before, limit)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"messages": msgs})
}

func parsePage(c *gin.Context) (time.Time, int, error) {
	var (
		before time.Time
		limit  int
		err    error
	)
	if s := c.Query("before"); s != "" {
		if before, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return before, 0, errs.ErrArgs.WrapMsg("before must be RFC3339", "before", s)
		}
	}
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return before, 0, errs.ErrArgs.WrapMsg("limit must be a positive integer", "limit", s)
		}
	}
	return before, limit, nil
}

func readFormImage(c *gin.Context, field string, maxBytes int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, errs.ErrArgs.WrapMsg(field + " file is required")
		}
		return nil, errs.ErrArgs.WrapMsg(err.Error())
	}
	if fh.Size > maxBytes {
		return nil, errs.ErrArgs.WrapMsg("image too large", "size", fh.Size, "max", maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errs.WrapMsg(err, "open form file failed")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, errs.WrapMsg(err, "read form file failed")
	}
	if int64(len(data)) > maxBytes {
		return nil, errs.ErrArgs.WrapMsg("image too large", "max", maxBytes)
	}
	return data, nil
}
