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

package fsdb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type postDB struct {
	client *firestore.Client
}

func decodePost(doc *firestore.DocumentSnapshot) (*model.Post, error) {
	var post model.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, errs.WrapMsg(err, "decode post failed", "postID", doc.Ref.ID)
	}
	post.ID = doc.Ref.ID
	if post.Reactions == nil {
		post.Reactions = map[string][]string{}
	}
	return &post, nil
}

func (p *postDB) Create(ctx context.Context, post *model.Post) error {
	var ref *firestore.DocumentRef
	if post.ID == "" {
		ref = p.client.Collection(database.PostName).NewDoc()
		post.ID = ref.ID
	} else {
		ref = postRef(p.client, post.ID)
	}
	if post.Reactions == nil {
		post.Reactions = map[string][]string{}
	}
	res, err := ref.Create(ctx, post)
	if err != nil {
		return errs.WrapMsg(err, "create post failed", "postID", post.ID)
	}
	post.CreatedAt = res.UpdateTime
	return nil
}

func (p *postDB) Take(ctx context.Context, postID string) (*model.Post, error) {
	doc, err := postRef(p.client, postID).Get(ctx)
	if err != nil {
		return nil, wrap(err, "post not found", "postID", postID)
	}
	return decodePost(doc)
}

func (p *postDB) Page(ctx context.Context, before time.Time, limit int) ([]*model.Post, error) {
	q := p.client.Collection(database.PostName).OrderBy("createdAt", firestore.Desc)
	if !before.IsZero() {
		q = q.StartAfter(before)
	}
	return getAll(ctx, q.Limit(limit), decodePost)
}

func (p *postDB) Delete(ctx context.Context, postID string) error {
	ref := postRef(p.client, postID)
	if _, err := deleteQuery(ctx, p.client, ref.Collection(database.CommentName).Query); err != nil {
		return errs.WrapMsg(err, "delete comments failed", "postID", postID)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return errs.WrapMsg(err, "delete post failed", "postID", postID)
	}
	return nil
}

type commentDB struct {
	client *firestore.Client
}

func decodeComment(doc *firestore.DocumentSnapshot) (*model.Comment, error) {
	var comment model.Comment
	if err := doc.DataTo(&comment); err != nil {
		return nil, errs.WrapMsg(err, "decode comment failed", "commentID", doc.Ref.ID)
	}
	comment.ID = doc.Ref.ID
	if parent := doc.Ref.Parent.Parent; parent != nil {
		comment.PostID = parent.ID
	}
	if comment.Reactions == nil {
		comment.Reactions = map[string][]string{}
	}
	return &comment, nil
}

// Create 评论写入与帖子commentCount+1在同一个批量写入中提交，帖子不存在时整体失败
func (c *commentDB) Create(ctx context.Context, comment *model.Comment) error {
	post := postRef(c.client, comment.PostID)
	var ref *firestore.DocumentRef
	if comment.ID == "" {
		ref = post.Collection(database.CommentName).NewDoc()
		comment.ID = ref.ID
	} else {
		ref = post.Collection(database.CommentName).Doc(comment.ID)
	}
	if comment.Reactions == nil {
		comment.Reactions = map[string][]string{}
	}
	batch := c.client.Batch()
	batch.Create(ref, comment)
	batch.Update(post, []firestore.Update{{Path: "commentCount", Value: firestore.Increment(1)}})
	results, err := batch.Commit(ctx)
	if err != nil {
		return wrap(err, "post not found", "postID", comment.PostID)
	}
	if len(results) > 0 {
		comment.CreatedAt = results[0].UpdateTime
	}
	return nil
}

func (c *commentDB) Take(ctx context.Context, postID string, commentID string) (*model.Comment, error) {
	doc, err := commentRef(c.client, postID, commentID).Get(ctx)
	if err != nil {
		return nil, wrap(err, "comment not found", "postID", postID, "commentID", commentID)
	}
	return decodeComment(doc)
}

func (c *commentDB) Find(ctx context.Context, postID string) ([]*model.Comment, error) {
	q := postRef(c.client, postID).Collection(database.CommentName).OrderBy("createdAt", firestore.Asc)
	return getAll(ctx, q, decodeComment)
}

type followDB struct {
	client *firestore.Client
}

func (f *followDB) ref(followerID, followeeID string) *firestore.DocumentRef {
	return f.client.Collection(database.UserName).Doc(followerID).Collection(followingName).Doc(followeeID)
}

func (f *followDB) Follow(ctx context.Context, followerID string, followeeID string) error {
	_, err := f.ref(followerID, followeeID).Create(ctx, &model.Follow{FollowerID: followerID, FolloweeID: followeeID})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return errs.WrapMsg(err, "follow failed", "followerID", followerID, "followeeID", followeeID)
	}
	return nil
}

func (f *followDB) Unfollow(ctx context.Context, followerID string, followeeID string) error {
	if _, err := f.ref(followerID, followeeID).Delete(ctx); err != nil {
		return errs.WrapMsg(err, "unfollow failed", "followerID", followerID, "followeeID", followeeID)
	}
	return nil
}

func (f *followDB) Following(ctx context.Context, followerID string) ([]string, error) {
	q := f.client.Collection(database.UserName).Doc(followerID).Collection(followingName).OrderBy(firestore.DocumentID, firestore.Asc)
	return getAll(ctx, q, func(doc *firestore.DocumentSnapshot) (string, error) {
		return doc.Ref.ID, nil
	})
}
