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

package localcache

import (
	"time"

	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/localcache/lru"
)

type option struct {
	slotNum    int
	slotSize   int
	successTTL time.Duration
	failedTTL  time.Duration
	target     lru.Target
}

func defaultOption() *option {
	return &option{
		slotNum:    500,
		slotSize:   20000,
		successTTL: time.Minute,
		failedTTL:  5 * time.Second,
		target:     lru.EmptyTarget{},
	}
}

type Option func(o *option)

// WithConfig 使用配置文件中的槽位与过期时间，非法值保持默认
func WithConfig(conf config.CacheConfig) Option {
	return func(o *option) {
		if conf.SlotNum > 0 {
			o.slotNum = conf.SlotNum
		}
		if conf.SlotSize > 0 {
			o.slotSize = conf.SlotSize
		}
		if conf.SuccessExpire > 0 {
			o.successTTL = conf.Success()
		}
		if conf.FailedExpire > 0 {
			o.failedTTL = conf.Failed()
		}
	}
}

func WithSlot(num, size int) Option {
	return func(o *option) {
		o.slotNum = num
		o.slotSize = size
	}
}

func WithTTL(success, failed time.Duration) Option {
	if success < 0 || failed < 0 {
		panic("ttl should not be negative")
	}
	return func(o *option) {
		o.successTTL = success
		o.failedTTL = failed
	}
}

func WithTarget(target lru.Target) Option {
	if target == nil {
		panic("target should not be nil")
	}
	return func(o *option) {
		o.target = target
	}
}
