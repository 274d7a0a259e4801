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

// Package cache 用户资料、在线状态、推送令牌的缓存接口
package cache

import (
	"context"

	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// ProfileCache 用户资料的旁路缓存
type ProfileCache interface {
	// GetProfile 不存在时返回 errs.ErrRecordNotFound
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	// GetProfiles 批量读取，不存在的用户被忽略，返回顺序不保证
	GetProfiles(ctx context.Context, userIDs []string) ([]*model.UserProfile, error)
	// DelProfile 资料变更后调用，同时通知各进程清理本地缓存
	DelProfile(ctx context.Context, userIDs ...string) error
}

// OnlineCache 用户的在线连接集合
// 每条长连接有独立的connID，连接需要在过期前刷新
type OnlineCache interface {
	GetOnline(ctx context.Context, userID string) ([]string, error)
	// SetOnline 添加online、移除offline，返回操作后该用户是否仍有在线连接
	SetOnline(ctx context.Context, userID string, online, offline []string) (bool, error)
}

// PushTokenCache 用户设备的FCM令牌
type PushTokenCache interface {
	SetToken(ctx context.Context, userID string, token string) error
	GetTokens(ctx context.Context, userID string) ([]string, error)
	DelToken(ctx context.Context, userID string, tokens ...string) error
}
