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

package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type postDB struct {
	db *DB
}

func (p *postDB) output(it *item[model.Post]) *model.Post {
	return clonePost(it.doc)
}

func (p *postDB) Create(ctx context.Context, post *model.Post) error {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	if post.ID == "" {
		post.ID = p.db.newID("p")
	}
	post.CreatedAt = p.db.now()
	if post.Reactions == nil {
		post.Reactions = map[string][]string{}
	}
	p.db.posts[post.ID] = &item[model.Post]{doc: clonePost(post), ver: p.db.nextVersion(), seq: p.db.nextSeq()}
	p.db.commit()
	return nil
}

func (p *postDB) Take(ctx context.Context, postID string) (*model.Post, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	it, ok := p.db.posts[postID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("post not found", "postID", postID)
	}
	return p.output(it), nil
}

func (p *postDB) Page(ctx context.Context, before time.Time, limit int) ([]*model.Post, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	items := values(p.db.posts)
	sortItems(items, func(a, b *model.Post) int {
		return compareTime(a.CreatedAt, b.CreatedAt)
	})
	res := make([]*model.Post, 0, limit)
	for i := len(items) - 1; i >= 0 && len(res) < limit; i-- {
		if !before.IsZero() && !items[i].doc.CreatedAt.Before(before) {
			continue
		}
		res = append(res, p.output(items[i]))
	}
	return res, nil
}

func (p *postDB) Delete(ctx context.Context, postID string) error {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	delete(p.db.posts, postID)
	delete(p.db.comments, postID)
	p.db.commit()
	return nil
}

type commentDB struct {
	db *DB
}

func (c *commentDB) output(postID string, it *item[model.Comment]) *model.Comment {
	comment := cloneComment(it.doc)
	comment.PostID = postID
	return comment
}

func (c *commentDB) Create(ctx context.Context, comment *model.Comment) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	post, ok := c.db.posts[comment.PostID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("post not found", "postID", comment.PostID)
	}
	if comment.ID == "" {
		comment.ID = c.db.newID("c")
	}
	comment.CreatedAt = c.db.now()
	if comment.Reactions == nil {
		comment.Reactions = map[string][]string{}
	}
	comments, ok := c.db.comments[comment.PostID]
	if !ok {
		comments = make(map[string]*item[model.Comment])
		c.db.comments[comment.PostID] = comments
	}
	comments[comment.ID] = &item[model.Comment]{doc: cloneComment(comment), ver: c.db.nextVersion(), seq: c.db.nextSeq()}
	post.doc.CommentCount++
	post.ver = c.db.nextVersion()
	c.db.commit()
	return nil
}

func (c *commentDB) Take(ctx context.Context, postID string, commentID string) (*model.Comment, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	it, ok := c.db.comments[postID][commentID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("comment not found", "postID", postID, "commentID", commentID)
	}
	return c.output(postID, it), nil
}

func (c *commentDB) Find(ctx context.Context, postID string) ([]*model.Comment, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	items := values(c.db.comments[postID])
	sortItems(items, func(a, b *model.Comment) int {
		return compareTime(a.CreatedAt, b.CreatedAt)
	})
	return datautil.Slice(items, func(it *item[model.Comment]) *model.Comment {
		return c.output(postID, it)
	}), nil
}

type followDB struct {
	db *DB
}

func (f *followDB) Follow(ctx context.Context, followerID string, followeeID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	following, ok := f.db.follows[followerID]
	if !ok {
		following = make(map[string]time.Time)
		f.db.follows[followerID] = following
	}
	if _, ok := following[followeeID]; !ok {
		following[followeeID] = f.db.now()
	}
	return nil
}

func (f *followDB) Unfollow(ctx context.Context, followerID string, followeeID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.follows[followerID], followeeID)
	return nil
}

func (f *followDB) Following(ctx context.Context, followerID string) ([]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ids := datautil.Keys(f.db.follows[followerID])
	sort.Strings(ids)
	return ids, nil
}
