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

// Package docstore 按配置打开会话、消息、动态所在的文档存储
package docstore

import (
	"context"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/openimsdk/tools/errs"

	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/database/fsdb"
	"github.com/saloneskills/connect/pkg/common/storage/database/memdb"
)

// DB fsdb与memdb共同提供的集合访问
type DB interface {
	Conversation() database.Conversation
	Message() database.Message
	Typing() database.Typing
	User() database.User
	Reaction() database.Reaction
	Post() database.Post
	Comment() database.Comment
	Follow() database.Follow
}

// Open driver为memory时不需要firebase应用
// 返回的close用于进程退出时释放连接
func Open(ctx context.Context, driver string, app *firebase.App) (DB, func() error, error) {
	switch strings.ToLower(driver) {
	case config.DriverMemory:
		return memdb.New(), func() error { return nil }, nil
	case config.DriverFirestore, "":
		if app == nil {
			return nil, nil, errs.ErrArgs.WrapMsg("firestore driver requires firebase config")
		}
		client, err := fsdb.NewClient(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		db := fsdb.New(client)
		return db, db.Close, nil
	default:
		return nil, nil, errs.ErrArgs.WrapMsg("unknown database driver", "driver", driver)
	}
}
