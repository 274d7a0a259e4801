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

package cachekey

import (
	"strings"
	"time"
)

const (
	ProfileKey   = "CONNECT_PROFILE:"
	OnlineKey    = "CONNECT_ONLINE:"
	PushTokenKey = "CONNECT_FCM_TOKEN:"

	// OnlineChannel 在线状态变化的发布频道，消息格式为 "connID:connID:...:userID"
	OnlineChannel = "connect_online_change"

	OnlineExpire  = 60 * time.Second
	ProfileExpire = 12 * time.Hour
)

func GetProfileKey(userID string) string {
	return ProfileKey + userID
}

func GetOnlineKey(userID string) string {
	return OnlineKey + userID
}

func GetOnlineKeyUserID(key string) string {
	return strings.TrimPrefix(key, OnlineKey)
}

func GetPushTokenKey(userID string) string {
	return PushTokenKey + userID
}

// KeysByTopic 按前缀把待删除的key分配到订阅了该前缀的频道
func KeysByTopic(subscribe map[string][]string, keys []string) map[string][]string {
	res := make(map[string][]string)
	for _, key := range keys {
		for topic, prefixes := range subscribe {
			for _, prefix := range prefixes {
				if strings.HasPrefix(key, prefix) {
					res[topic] = append(res[topic], key)
					break
				}
			}
		}
	}
	return res
}
