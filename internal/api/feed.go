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
	"github.com/gin-gonic/gin"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/mcontext"

	"github.com/saloneskills/connect/internal/feed"
)

type FeedApi struct {
	svc           *feed.Service
	maxImageBytes int64
}

func NewFeedApi(svc *feed.Service, maxImageBytes int64) *FeedApi {
	return &FeedApi{svc: svc, maxImageBytes: maxImageBytes}
}

type CreateCommentReq struct {
	Body     string `json:"body" binding:"required"`
	ParentID string `json:"parentID"`
}

// ReactFeedReq CommentID为空时对帖子表态
type ReactFeedReq struct {
	PostID    string `json:"postID" binding:"required"`
	CommentID string `json:"commentID"`
	Emoji     string `json:"emoji" binding:"required"`
}

type FollowReq struct {
	TargetID string `json:"targetID" binding:"required"`
}

// CreatePost JSON或multipart均可；multipart时image文件可选
func (o *FeedApi) CreatePost(c *gin.Context) {
	var (
		body  string
		image []byte
		err   error
	)
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		body = c.PostForm("body")
		if _, ferr := c.FormFile("image"); ferr == nil {
			if image, err = readFormImage(c, "image", o.maxImageBytes); err != nil {
				apiresp.GinError(c, err)
				return
			}
		}
	} else {
		var req struct {
			Body string `json:"body"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
			return
		}
		body = req.Body
	}
	ctx := c.Request.Context()
	post, err := o.svc.CreatePost(ctx, mcontext.GetOpUserID(ctx), body, image)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, post)
}

func (o *FeedApi) ListPosts(c *gin.Context) {
	before, limit, err := parsePage(c)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	posts, err := o.svc.ListPosts(c.Request.Context(), before, limit)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"posts": posts})
}

func (o *FeedApi) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()
	if err := o.svc.DeletePost(ctx, mcontext.GetOpUserID(ctx), c.Param("id")); err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, nil)
}

func (o *FeedApi) CreateComment(c *gin.Context) {
	var req CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	comment, err := o.svc.CreateComment(ctx, mcontext.GetOpUserID(ctx), c.Param("id"), req.Body, req.ParentID)
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, comment)
}

func (o *FeedApi) ListComments(c *gin.Context) {
	threads, err := o.svc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"threads": threads})
}

func (o *FeedApi) React(c *gin.Context) {
	var req ReactFeedReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	userID := mcontext.GetOpUserID(ctx)
	var (
		reactions map[string][]string
		err       error
	)
	if req.CommentID == "" {
		reactions, err = o.svc.ReactPost(ctx, userID, req.PostID, req.Emoji)
	} else {
		reactions, err = o.svc.ReactComment(ctx, userID, req.PostID, req.CommentID, req.Emoji)
	}
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"reactions": reactions})
}

func (o *FeedApi) Follow(c *gin.Context) {
	o.follow(c, true)
}

func (o *FeedApi) Unfollow(c *gin.Context) {
	o.follow(c, false)
}

func (o *FeedApi) follow(c *gin.Context, follow bool) {
	var req FollowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apiresp.GinError(c, errs.ErrArgs.WrapMsg(err.Error()))
		return
	}
	ctx := c.Request.Context()
	viewer, err := o.svc.NewViewer(ctx, mcontext.GetOpUserID(ctx))
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	if follow {
		err = viewer.Follow(ctx, req.TargetID)
	} else {
		err = viewer.Unfollow(ctx, req.TargetID)
	}
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"following": viewer.Following()})
}

func (o *FeedApi) Following(c *gin.Context) {
	ctx := c.Request.Context()
	viewer, err := o.svc.NewViewer(ctx, mcontext.GetOpUserID(ctx))
	if err != nil {
		apiresp.GinError(c, err)
		return
	}
	apiresp.GinSuccess(c, gin.H{"following": viewer.Following()})
}
