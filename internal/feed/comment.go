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

package feed

import (
	"context"

	"github.com/google/uuid"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// Thread 一条顶层评论及其全部回复
type Thread struct {
	*model.Comment
	Replies []*model.Comment `json:"replies"`
}

// CreateComment 发表评论
// parentID指向一条回复时，新评论挂到该回复所属的顶层评论下
func (s *Service) CreateComment(ctx context.Context, authorID, postID, body, parentID string) (*model.Comment, error) {
	if authorID == "" || postID == "" {
		return nil, errs.ErrArgs.WrapMsg("authorID and postID are required")
	}
	body, err := s.checkBody(body, false)
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		parent, err := s.db.Comment.Take(ctx, postID, parentID)
		if err != nil {
			return nil, err
		}
		if parent.ParentID != "" {
			parentID = parent.ParentID
		}
	}
	comment := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		ParentID:  parentID,
		Reactions: map[string][]string{},
	}
	if err := s.db.Comment.Create(ctx, comment); err != nil {
		return nil, err
	}
	log.ZDebug(ctx, "comment created", "postID", postID, "commentID", comment.ID, "parentID", parentID)
	events.Emit(ctx, s.publisher, &events.Event{
		Type:    events.TypeCommentCreated,
		Key:     postID,
		ActorID: authorID,
		Payload: map[string]any{"commentID": comment.ID, "parentID": parentID},
	})
	return comment, nil
}

// ListComments 按时间顺序返回帖子的评论树
func (s *Service) ListComments(ctx context.Context, postID string) ([]*Thread, error) {
	comments, err := s.db.Comment.Find(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildThreads(comments), nil
}

// BuildThreads 把按时间排序的评论组装成一层嵌套
// 父评论不存在的回复作为顶层评论展示
func BuildThreads(comments []*model.Comment) []*Thread {
	threads := make([]*Thread, 0, len(comments))
	index := make(map[string]*Thread, len(comments))
	for _, c := range comments {
		if c.ParentID == "" {
			th := &Thread{Comment: c, Replies: []*model.Comment{}}
			threads = append(threads, th)
			index[c.ID] = th
		}
	}
	for _, c := range comments {
		if c.ParentID == "" {
			continue
		}
		if th, ok := index[c.ParentID]; ok {
			th.Replies = append(th.Replies, c)
			continue
		}
		threads = append(threads, &Thread{Comment: c, Replies: []*model.Comment{}})
	}
	return threads
}
