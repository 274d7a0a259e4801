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

package msggateway

import (
	"sync"
	"time"

	"github.com/openimsdk/tools/utils/datautil"
)

// UserMap 本进程上每个用户的连接
type UserMap interface {
	GetAll(userID string) ([]*Client, bool)
	Set(userID string, v *Client)
	DeleteClients(userID string, clients []*Client) (isDeleteUser bool)
	UserState() <-chan UserState
	GetAllUserStatus(deadline time.Time, nowtime time.Time) []UserState
	Len() (users int, conns int)
}

// UserState 在线连接变化，Online为当前全部连接，Offline为本次断开的连接
// Changed为false表示定时续期
type UserState struct {
	UserID  string
	Online  []string
	Offline []string
	Changed bool
}

// UserConns 一个用户的全部连接，Time为最后一次上报在线状态的时间
type UserConns struct {
	Time    time.Time
	Clients []*Client
}

func (u *UserConns) ConnIDs() []string {
	return datautil.Slice(u.Clients, func(c *Client) string { return c.ctx.GetConnID() })
}

func newUserMap() UserMap {
	return &userMap{
		data: make(map[string]*UserConns),
		ch:   make(chan UserState, 10000),
	}
}

type userMap struct {
	lock sync.RWMutex
	data map[string]*UserConns
	ch   chan UserState
}

// push 通道满时丢弃，由下一次续期补上
func (u *userMap) push(userID string, conns *UserConns, offline []string) bool {
	select {
	case u.ch <- UserState{
		UserID:  userID,
		Online:  conns.ConnIDs(),
		Offline: offline,
		Changed: true,
	}:
		conns.Time = time.Now()
		return true
	default:
		return false
	}
}

func (u *userMap) GetAll(userID string) ([]*Client, bool) {
	u.lock.RLock()
	defer u.lock.RUnlock()
	result, ok := u.data[userID]
	if !ok {
		return nil, false
	}
	return append([]*Client(nil), result.Clients...), true
}

func (u *userMap) Set(userID string, client *Client) {
	u.lock.Lock()
	defer u.lock.Unlock()
	result, ok := u.data[userID]
	if ok {
		result.Clients = append(result.Clients, client)
	} else {
		result = &UserConns{Clients: []*Client{client}}
		u.data[userID] = result
	}
	u.push(userID, result, nil)
}

func (u *userMap) DeleteClients(userID string, clients []*Client) (isDeleteUser bool) {
	if len(clients) == 0 {
		return false
	}
	u.lock.Lock()
	defer u.lock.Unlock()
	result, ok := u.data[userID]
	if !ok {
		return false
	}
	deleteIDs := datautil.SliceSetAny(clients, func(c *Client) string { return c.ctx.GetConnID() })
	offline := make([]string, 0, len(clients))
	tmp := result.Clients
	result.Clients = make([]*Client, 0, len(tmp))
	for _, client := range tmp {
		if _, del := deleteIDs[client.ctx.GetConnID()]; del {
			offline = append(offline, client.ctx.GetConnID())
		} else {
			result.Clients = append(result.Clients, client)
		}
	}
	defer u.push(userID, result, offline)
	if len(result.Clients) > 0 {
		return false
	}
	delete(u.data, userID)
	return true
}

// GetAllUserStatus 返回deadline之前没有上报过的用户，用于续期
func (u *userMap) GetAllUserStatus(deadline time.Time, nowtime time.Time) []UserState {
	u.lock.Lock()
	defer u.lock.Unlock()
	result := make([]UserState, 0, len(u.data))
	for userID, conns := range u.data {
		if deadline.Before(conns.Time) {
			continue
		}
		conns.Time = nowtime
		result = append(result, UserState{UserID: userID, Online: conns.ConnIDs()})
	}
	return result
}

func (u *userMap) UserState() <-chan UserState {
	return u.ch
}

func (u *userMap) Len() (users int, conns int) {
	u.lock.RLock()
	defer u.lock.RUnlock()
	for _, c := range u.data {
		conns += len(c.Clients)
	}
	return len(u.data), conns
}
