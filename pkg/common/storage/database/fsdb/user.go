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
	"github.com/openimsdk/tools/utils/datautil"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type userDB struct {
	client *firestore.Client
}

func decodeUser(doc *firestore.DocumentSnapshot) (*model.UserProfile, error) {
	var user model.UserProfile
	if err := doc.DataTo(&user); err != nil {
		return nil, errs.WrapMsg(err, "decode user failed", "userID", doc.Ref.ID)
	}
	user.UserID = doc.Ref.ID
	return &user, nil
}

func (u *userDB) ref(userID string) *firestore.DocumentRef {
	return u.client.Collection(database.UserName).Doc(userID)
}

func (u *userDB) Take(ctx context.Context, userID string) (*model.UserProfile, error) {
	doc, err := u.ref(userID).Get(ctx)
	if err != nil {
		return nil, wrap(err, "user not found", "userID", userID)
	}
	return decodeUser(doc)
}

func (u *userDB) Find(ctx context.Context, userIDs []string) ([]*model.UserProfile, error) {
	userIDs = datautil.Distinct(userIDs)
	if len(userIDs) == 0 {
		return []*model.UserProfile{}, nil
	}
	docs, err := u.client.GetAll(ctx, datautil.Slice(userIDs, u.ref))
	if err != nil {
		return nil, errs.WrapMsg(err, "get users failed", "count", len(userIDs))
	}
	users := make([]*model.UserProfile, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *userDB) Watch(ctx context.Context, userID string) (database.Listener[*model.UserProfile], error) {
	return listenDoc(ctx, u.ref(userID), decodeUser), nil
}

func (u *userDB) UpdatePresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	_, err := u.ref(userID).Update(ctx, []firestore.Update{
		{Path: "online", Value: online},
		{Path: "lastSeen", Value: lastSeen},
	})
	return wrap(err, "user not found", "userID", userID)
}

func (u *userDB) Upsert(ctx context.Context, profile *model.UserProfile) error {
	if profile.UserID == "" {
		return errs.ErrArgs.WrapMsg("userID is empty")
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if _, err := u.ref(profile.UserID).Set(ctx, profile); err != nil {
		return errs.WrapMsg(err, "upsert user failed", "userID", profile.UserID)
	}
	return nil
}
