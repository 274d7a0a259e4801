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

// Package mgo 基于MongoDB的用户资料目录
// 部署方已有用户库时通过profileStore: mongo切换到这里，会话与消息仍然保存在Firestore
package mgo

import (
	"context"
	"sync"
	"time"

	"github.com/openimsdk/tools/db/mongoutil"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewUserMongo(db *mongo.Database) (database.User, error) {
	coll := db.Collection(database.UserName)
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &UserMgo{coll: coll}, nil
}

type UserMgo struct {
	coll *mongo.Collection
}

func notFound(err error) bool {
	return errs.Unwrap(err) == mongo.ErrNoDocuments
}

func (u *UserMgo) Take(ctx context.Context, userID string) (*model.UserProfile, error) {
	user, err := mongoutil.FindOne[*model.UserProfile](ctx, u.coll, bson.M{"user_id": userID})
	if err != nil {
		if notFound(err) {
			return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "userID", userID)
		}
		return nil, err
	}
	return user, nil
}

func (u *UserMgo) Find(ctx context.Context, userIDs []string) ([]*model.UserProfile, error) {
	userIDs = datautil.Distinct(userIDs)
	if len(userIDs) == 0 {
		return []*model.UserProfile{}, nil
	}
	return mongoutil.Find[*model.UserProfile](ctx, u.coll, bson.M{"user_id": bson.M{"$in": userIDs}})
}

func (u *UserMgo) UpdatePresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	err := mongoutil.UpdateOne(ctx, u.coll, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"online": online, "last_seen": lastSeen}}, true)
	if err != nil && notFound(err) {
		return errs.ErrRecordNotFound.WrapMsg("user not found", "userID", userID)
	}
	return err
}

func (u *UserMgo) Upsert(ctx context.Context, profile *model.UserProfile) error {
	if profile.UserID == "" {
		return errs.ErrArgs.WrapMsg("userID is empty")
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	_, err := u.coll.ReplaceOne(ctx, bson.M{"user_id": profile.UserID}, profile, options.Replace().SetUpsert(true))
	return errs.Wrap(err)
}

// Watch 基于change stream监听单个用户文档，需要副本集部署
// 首个快照读取当前文档，之后每次变更读取变更后的完整文档
func (u *UserMgo) Watch(ctx context.Context, userID string) (database.Listener[*model.UserProfile], error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.user_id": userID}}},
	}
	stream, err := u.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, errs.WrapMsg(err, "watch users failed", "userID", userID)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &userListener{ctx: ctx, cancel: cancel, stream: stream, take: u.Take, userID: userID}, nil
}

type userListener struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stream  *mongo.ChangeStream
	take    func(ctx context.Context, userID string) (*model.UserProfile, error)
	userID  string
	started bool
	prev    *model.UserProfile
	once    sync.Once
}

func (l *userListener) snapshot(user *model.UserProfile) *database.Snapshot[*model.UserProfile] {
	kind := database.ChangeAdded
	if l.prev != nil {
		kind = database.ChangeModified
	}
	l.prev = user
	return &database.Snapshot[*model.UserProfile]{
		Docs:    []*model.UserProfile{user},
		Changes: []database.Change[*model.UserProfile]{{Kind: kind, Doc: user}},
	}
}

func (l *userListener) Next() (*database.Snapshot[*model.UserProfile], error) {
	if !l.started {
		l.started = true
		user, err := l.take(l.ctx, l.userID)
		if err != nil {
			if errs.ErrRecordNotFound.Is(errs.Unwrap(err)) {
				return &database.Snapshot[*model.UserProfile]{}, nil
			}
			return nil, err
		}
		return l.snapshot(user), nil
	}
	for l.stream.Next(l.ctx) {
		var event struct {
			OperationType string             `bson:"operationType"`
			FullDocument  *model.UserProfile `bson:"fullDocument"`
		}
		if err := l.stream.Decode(&event); err != nil {
			return nil, errs.WrapMsg(err, "decode user change failed", "userID", l.userID)
		}
		if event.FullDocument == nil {
			continue
		}
		return l.snapshot(event.FullDocument), nil
	}
	if l.ctx.Err() != nil {
		return nil, database.ErrListenerStopped.Wrap()
	}
	if err := l.stream.Err(); err != nil {
		return nil, errs.WrapMsg(err, "user change stream failed", "userID", l.userID)
	}
	return nil, database.ErrListenerStopped.Wrap()
}

func (l *userListener) Stop() {
	l.once.Do(func() {
		l.cancel()
		_ = l.stream.Close(context.Background())
	})
}
