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

// Package feed 动态流：帖子、评论、表态与关注
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/common/storage/objstore"
)

const (
	DefaultMaxBodyLength = 5000
	DefaultPageSize      = 20
)

type Config struct {
	MaxBodyLength int
	PageSize      int
	MaxImageWidth int
}

type Databases struct {
	Post    database.Post
	Comment database.Comment
	Follow  database.Follow
	User    database.User
}

type Service struct {
	conf      Config
	db        Databases
	reactor   *chat.Reactor
	store     objstore.Store
	publisher events.Publisher
}

func NewService(conf Config, db Databases, reactor *chat.Reactor, store objstore.Store, publisher events.Publisher) *Service {
	if conf.MaxBodyLength <= 0 {
		conf.MaxBodyLength = DefaultMaxBodyLength
	}
	if conf.PageSize <= 0 {
		conf.PageSize = DefaultPageSize
	}
	if conf.MaxImageWidth <= 0 {
		conf.MaxImageWidth = chat.DefaultMaxImageWidth
	}
	if store == nil {
		store = objstore.NewMemory()
	}
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &Service{conf: conf, db: db, reactor: reactor, store: store, publisher: publisher}
}

func (s *Service) checkBody(body string, allowEmpty bool) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" && !allowEmpty {
		return "", errs.ErrArgs.WrapMsg("body is empty")
	}
	if utf8.RuneCountInString(body) > s.conf.MaxBodyLength {
		return "", errs.ErrArgs.WrapMsg("body too long", "max", s.conf.MaxBodyLength)
	}
	return body, nil
}

// CreatePost 发布帖子，正文与图片至少有一个
func (s *Service) CreatePost(ctx context.Context, authorID, body string, image []byte) (*model.Post, error) {
	if authorID == "" {
		return nil, errs.ErrArgs.WrapMsg("authorID is required")
	}
	body, err := s.checkBody(body, len(image) > 0)
	if err != nil {
		return nil, err
	}
	post := &model.Post{ID: uuid.New().String(), AuthorID: authorID, Body: body, Reactions: map[string][]string{}}
	if len(image) > 0 {
		img, err := objstore.PrepareImage(image, s.conf.MaxImageWidth)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("feed/%s/%s.jpg", authorID, post.ID)
		url, err := s.store.Upload(ctx, key, objstore.ImageContentType, img)
		if err != nil {
			return nil, servererrs.ErrUpload.WrapMsg(err.Error(), "engine", s.store.Engine(), "key", key)
		}
		post.ImageURL = url
	}
	if err := s.db.Post.Create(ctx, post); err != nil {
		return nil, err
	}
	prommetrics.PostCreatedCounter.Inc()
	log.ZInfo(ctx, "post created", "postID", post.ID, "authorID", authorID)
	events.Emit(ctx, s.publisher, &events.Event{Type: events.TypePostCreated, Key: post.ID, ActorID: authorID})
	return post, nil
}

// ListPosts 按发布时间倒序分页，before为零值时从最新一条开始
func (s *Service) ListPosts(ctx context.Context, before time.Time, limit int) ([]*model.Post, error) {
	if limit <= 0 || limit > s.conf.PageSize {
		limit = s.conf.PageSize
	}
	return s.db.Post.Page(ctx, before, limit)
}

// DeletePost 删除帖子及其评论，只有作者可以删除
func (s *Service) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.db.Post.Take(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return errs.ErrNoPermission.WrapMsg("only the author can delete a post", "postID", postID, "userID", userID)
	}
	if err := s.db.Post.Delete(ctx, postID); err != nil {
		return err
	}
	log.ZInfo(ctx, "post deleted", "postID", postID, "userID", userID)
	events.Emit(ctx, s.publisher, &events.Event{Type: events.TypePostDeleted, Key: postID, ActorID: userID})
	return nil
}

// ReactPost 切换对帖子的表态
func (s *Service) ReactPost(ctx context.Context, userID, postID, emoji string) (map[string][]string, error) {
	return s.reactor.Toggle(ctx, model.ReactionTarget{Kind: model.ReactionTargetPost, ID: postID}, userID, emoji)
}

// ReactComment 切换对评论的表态
func (s *Service) ReactComment(ctx context.Context, userID, postID, commentID, emoji string) (map[string][]string, error) {
	return s.reactor.Toggle(ctx, model.ReactionTarget{Kind: model.ReactionTargetComment, ParentID: postID, ID: commentID}, userID, emoji)
}
