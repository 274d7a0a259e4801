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

// Package mcache 未启用redis时的进程内实现，只适合单实例部署
package mcache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/utils/datautil"

	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

// NewProfileCache 直接读存储，没有共享缓存可失效
func NewProfileCache(userDB database.User) cache.ProfileCache {
	return &profileCache{userDB: userDB}
}

type profileCache struct {
	userDB database.User
}

func (p *profileCache) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return p.userDB.Take(ctx, userID)
}

func (p *profileCache) GetProfiles(ctx context.Context, userIDs []string) ([]*model.UserProfile, error) {
	return p.userDB.Find(ctx, datautil.Distinct(userIDs))
}

func (p *profileCache) DelProfile(ctx context.Context, userIDs ...string) error {
	return nil
}

// NewOnlineCache 连接存活时间交给expirable LRU，按用户维护连接索引
// 索引在读取或写入该用户时按LRU结果清理过期连接
func NewOnlineCache(expire time.Duration) cache.OnlineCache {
	if expire <= 0 {
		expire = cachekey.OnlineExpire
	}
	return &onlineCache{
		conns: expirable.NewLRU[string, struct{}](0, nil, expire),
		users: make(map[string]map[string]struct{}),
	}
}

type onlineCache struct {
	conns *expirable.LRU[string, struct{}]
	mu    sync.Mutex
	users map[string]map[string]struct{}
}

// live 调用方必须持有o.mu
func (o *onlineCache) live(userID string) map[string]struct{} {
	index := o.users[userID]
	for connID := range index {
		if _, ok := o.conns.Get(cachekey.GetOnlineKey(userID) + ":" + connID); !ok {
			delete(index, connID)
		}
	}
	return index
}

func (o *onlineCache) GetOnline(ctx context.Context, userID string) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return datautil.Keys(o.live(userID)), nil
}

func (o *onlineCache) SetOnline(ctx context.Context, userID string, online, offline []string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	index := o.live(userID)
	if index == nil {
		index = make(map[string]struct{})
		o.users[userID] = index
	}
	key := cachekey.GetOnlineKey(userID) + ":"
	for _, connID := range offline {
		o.conns.Remove(key + connID)
		delete(index, connID)
	}
	for _, connID := range online {
		o.conns.Add(key+connID, struct{}{})
		index[connID] = struct{}{}
	}
	if len(index) == 0 {
		delete(o.users, userID)
		return false, nil
	}
	return true, nil
}

func NewPushTokenCache() cache.PushTokenCache {
	return &pushTokenCache{tokens: make(map[string]map[string]struct{})}
}

type pushTokenCache struct {
	mu     sync.Mutex
	tokens map[string]map[string]struct{}
}

func (p *pushTokenCache) SetToken(ctx context.Context, userID string, token string) error {
	if token == "" {
		return errs.ErrArgs.WrapMsg("empty push token")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.tokens[userID]
	if !ok {
		set = make(map[string]struct{})
		p.tokens[userID] = set
	}
	set[token] = struct{}{}
	return nil
}

func (p *pushTokenCache) GetTokens(ctx context.Context, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return datautil.Keys(p.tokens[userID]), nil
}

func (p *pushTokenCache) DelToken(ctx context.Context, userID string, tokens ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range tokens {
		delete(p.tokens[userID], t)
	}
	return nil
}
