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

// Package firebaseutil 初始化进程内共享的firebase应用
package firebaseutil

import (
	"context"
	"path/filepath"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/config"
	"google.golang.org/api/option"
)

// ClientOptions 按配置选择凭证
// 凭证文件使用相对路径时相对于配置目录；都没有配置时使用运行环境的默认凭证
func ClientOptions(conf *config.Firebase, configPath string) []option.ClientOption {
	switch {
	case conf.CredentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(conf.CredentialsJSON))}
	case conf.CredentialsFile != "":
		file := conf.CredentialsFile
		if !filepath.IsAbs(file) && configPath != "" {
			file = filepath.Join(configPath, file)
		}
		return []option.ClientOption{option.WithCredentialsFile(file)}
	default:
		return nil
	}
}

// NewApp Firestore、Storage、FCM共用同一个应用实例
func NewApp(ctx context.Context, conf *config.Firebase, configPath string) (*firebase.App, error) {
	if conf.ProjectID == "" {
		return nil, errs.ErrArgs.WrapMsg("firebase projectID is empty")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     conf.ProjectID,
		StorageBucket: conf.StorageBucket,
	}, ClientOptions(conf, configPath)...)
	if err != nil {
		return nil, errs.WrapMsg(err, "init firebase app failed", "projectID", conf.ProjectID)
	}
	return app, nil
}

// Needed 文档存储、对象存储、离线推送任一使用firebase时返回true
func Needed(conf *config.AllConfig) bool {
	return strings.EqualFold(conf.API.Database.Driver, config.DriverFirestore) ||
		strings.EqualFold(conf.Object.Enable, config.ObjectFirebase) ||
		strings.EqualFold(conf.API.Push.Enable, config.PushFCM)
}
