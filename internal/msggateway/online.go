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
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"

	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
)

func (ws *WsServer) onlineExpire() time.Duration {
	if ws.conf.Gateway.OnlineExpire > 0 {
		return ws.conf.Gateway.OnlineExpire
	}
	return cachekey.OnlineExpire
}

// ChangeOnlineStatus 把连接变化写入在线缓存，并定时续期
// 同一用户的状态总是落到同一个协程，保证顺序
func (ws *WsServer) ChangeOnlineStatus(ctx context.Context, concurrent int) {
	if concurrent < 1 {
		concurrent = 1
	}
	renewalTime := ws.onlineExpire() / 3
	renewalTicker := time.NewTicker(renewalTime)
	defer renewalTicker.Stop()

	requestChs := make([]chan []UserState, concurrent)
	changeStatus := make([][]UserState, concurrent)
	for i := 0; i < concurrent; i++ {
		requestChs[i] = make(chan []UserState, 64)
		changeStatus[i] = make([]UserState, 0, 100)
	}
	defer func() {
		for _, ch := range requestChs {
			close(ch)
		}
	}()

	mergeTicker := time.NewTicker(time.Second)
	defer mergeTicker.Stop()

	rNum := rand.Uint64()
	send := func(i int) {
		status := changeStatus[i]
		req := make([]UserState, len(status))
		copy(req, status)
		changeStatus[i] = status[:0]
		select {
		case requestChs[i] <- req:
		default:
			log.ZError(ctx, "user online processing is too slow", nil)
		}
	}
	pushUserState := func(us ...UserState) {
		for _, u := range us {
			sum := md5.Sum([]byte(u.UserID))
			i := (binary.BigEndian.Uint64(sum[:]) + rNum) % uint64(concurrent)
			changeStatus[i] = append(changeStatus[i], u)
			if len(changeStatus[i]) == cap(changeStatus[i]) {
				send(int(i))
			}
		}
	}
	pushAllUserState := func() {
		for i, status := range changeStatus {
			if len(status) > 0 {
				send(i)
			}
		}
	}

	var count atomic.Int64
	operationIDPrefix := fmt.Sprintf("p_%d_", os.Getpid())
	for i := 0; i < concurrent; i++ {
		go func(ch <-chan []UserState) {
			for req := range ch {
				opCtx := mcontext.SetOperationID(context.Background(), operationIDPrefix+strconv.FormatInt(count.Add(1), 10))
				ws.setUserOnlineStatus(opCtx, req)
			}
		}(requestChs[i])
	}

	for {
		select {
		case <-ctx.Done():
			pushAllUserState()
			return
		case <-mergeTicker.C:
			pushAllUserState()
		case now := <-renewalTicker.C:
			deadline := now.Add(-renewalTime)
			users := ws.clients.GetAllUserStatus(deadline, now)
			log.ZDebug(ctx, "renewal ticker", "deadline", deadline, "num", len(users))
			pushUserState(users...)
		case state := <-ws.clients.UserState():
			log.ZDebug(ctx, "user online change", "userID", state.UserID, "online", state.Online, "offline", state.Offline)
			pushUserState(state)
		}
	}
}

// setUserOnlineStatus 续期只刷新在线缓存；连接变化时同时更新资料上的在线状态
func (ws *WsServer) setUserOnlineStatus(ctx context.Context, states []UserState) {
	for _, s := range states {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		isOnline, err := ws.online.SetOnline(cctx, s.UserID, s.Online, s.Offline)
		if err != nil {
			log.ZError(cctx, "update user online status", err, "userID", s.UserID)
			// 缓存失败时以本地连接为准
			isOnline = len(s.Online) > 0
		}
		if s.Changed && ws.presence != nil {
			if err := ws.presence.SetPresence(cctx, s.UserID, isOnline, ws.now()); err != nil {
				log.ZWarn(cctx, "update user presence", err, "userID", s.UserID, "online", isOnline)
			}
		}
		cancel()
	}
}
