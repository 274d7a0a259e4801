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

// Package fsdb 基于Cloud Firestore的文档存储实现
//
// 集合布局：
//
//	conversations/{conversationID}
//	conversations/{conversationID}/messages/{messageID}
//	conversations/{conversationID}/typing/{userID}
//	users/{userID}
//	users/{userID}/following/{followeeID}
//	posts/{postID}
//	posts/{postID}/comments/{commentID}
package fsdb

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	followingName = "following"
	// batchLimit 单次批量写入的文档数上限（Firestore限制为500）
	batchLimit = 400
)

type DB struct {
	client *firestore.Client
}

// NewClient 从firebase应用获取Firestore客户端
func NewClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errs.WrapMsg(err, "init firestore client failed")
	}
	return client, nil
}

func New(client *firestore.Client) *DB {
	return &DB{client: client}
}

func (db *DB) Close() error {
	return db.client.Close()
}

func (db *DB) Conversation() database.Conversation { return &conversationDB{client: db.client} }

func (db *DB) Message() database.Message { return &messageDB{client: db.client} }

func (db *DB) Typing() database.Typing { return &typingDB{client: db.client} }

func (db *DB) User() database.User { return &userDB{client: db.client} }

func (db *DB) Reaction() database.Reaction { return &reactionDB{client: db.client} }

func (db *DB) Post() database.Post { return &postDB{client: db.client} }

func (db *DB) Comment() database.Comment { return &commentDB{client: db.client} }

func (db *DB) Follow() database.Follow { return &followDB{client: db.client} }

func conversationRef(client *firestore.Client, conversationID string) *firestore.DocumentRef {
	return client.Collection(database.ConversationName).Doc(conversationID)
}

func messageRef(client *firestore.Client, conversationID, messageID string) *firestore.DocumentRef {
	return conversationRef(client, conversationID).Collection(database.MessageName).Doc(messageID)
}

func typingRef(client *firestore.Client, conversationID, userID string) *firestore.DocumentRef {
	return conversationRef(client, conversationID).Collection(database.TypingName).Doc(userID)
}

func postRef(client *firestore.Client, postID string) *firestore.DocumentRef {
	return client.Collection(database.PostName).Doc(postID)
}

func commentRef(client *firestore.Client, postID, commentID string) *firestore.DocumentRef {
	return postRef(client, postID).Collection(database.CommentName).Doc(commentID)
}

// IsNotFound 判断Firestore返回的错误是否为文档不存在
func IsNotFound(err error) bool {
	return status.Code(errs.Unwrap(err)) == codes.NotFound
}

// wrap 文档不存在转换为ErrRecordNotFound，其余错误附带上下文
func wrap(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return errs.ErrRecordNotFound.WrapMsg(msg, kv...)
	}
	return errs.WrapMsg(err, msg, kv...)
}

// deleteQuery 分批删除查询命中的全部文档，返回删除条数
func deleteQuery(ctx context.Context, client *firestore.Client, q firestore.Query) (int, error) {
	var total int
	for {
		docs, err := q.Limit(batchLimit).Documents(ctx).GetAll()
		if err != nil {
			return total, errs.WrapMsg(err, "query documents for delete failed")
		}
		if len(docs) == 0 {
			return total, nil
		}
		batch := client.Batch()
		for _, doc := range docs {
			batch.Delete(doc.Ref)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return total, errs.WrapMsg(err, "batch delete failed")
		}
		total += len(docs)
		if len(docs) < batchLimit {
			return total, nil
		}
	}
}

// getAll 读取查询全部结果并解码
func getAll[T any](ctx context.Context, q firestore.Query, decode func(doc *firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	it := q.Documents(ctx)
	defer it.Stop()
	var res []T
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.WrapMsg(err, "iterate documents failed")
		}
		v, err := decode(doc)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	if res == nil {
		res = make([]T, 0)
	}
	return res, nil
}
