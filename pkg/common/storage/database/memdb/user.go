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
	"time"

	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type userDB struct {
	db *DB
}

func (u *userDB) output(userID string, it *item[model.UserProfile]) *model.UserProfile {
	p := cloneUser(it.doc)
	p.UserID = userID
	return p
}

func (u *userDB) Take(ctx context.Context, userID string) (*model.UserProfile, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	it, ok := u.db.users[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "userID", userID)
	}
	return u.output(userID, it), nil
}

func (u *userDB) Find(ctx context.Context, userIDs []string) ([]*model.UserProfile, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	res := make([]*model.UserProfile, 0, len(userIDs))
	for _, userID := range userIDs {
		if it, ok := u.db.users[userID]; ok {
			res = append(res, u.output(userID, it))
		}
	}
	return res, nil
}

func (u *userDB) Watch(ctx context.Context, userID string) (database.Listener[*model.UserProfile], error) {
	return watch(ctx, u.db, func() []entry[*model.UserProfile] {
		it, ok := u.db.users[userID]
		if !ok {
			return nil
		}
		return []entry[*model.UserProfile]{{key: userID, ver: it.ver, doc: u.output(userID, it)}}
	}), nil
}

func (u *userDB) UpdatePresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	it, ok := u.db.users[userID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("user not found", "userID", userID)
	}
	it.doc.Online = online
	it.doc.LastSeen = lastSeen
	it.ver = u.db.nextVersion()
	u.db.commit()
	return nil
}

func (u *userDB) Upsert(ctx context.Context, profile *model.UserProfile) error {
	if profile.UserID == "" {
		return errs.ErrArgs.WrapMsg("userID is empty")
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	doc := cloneUser(profile)
	it, ok := u.db.users[profile.UserID]
	if !ok {
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = u.db.now()
		}
		it = &item[model.UserProfile]{seq: u.db.nextSeq()}
		u.db.users[profile.UserID] = it
	} else if doc.CreatedAt.IsZero() {
		doc.CreatedAt = it.doc.CreatedAt
	}
	it.doc = doc
	it.ver = u.db.nextVersion()
	u.db.commit()
	return nil
}
