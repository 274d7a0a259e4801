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

// Package objstore 聊天图片与帖子配图的对象存储
package objstore

import (
	"context"
	"fmt"
	"sync"
)

// Store 上传对象并返回可以直接访问的下载地址
type Store interface {
	Engine() string
	Upload(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// Memory 进程内对象存储，单机演示与测试使用
type Memory struct {
	lock    sync.RWMutex
	objects map[string]Object
}

// Object 内存中的对象
type Object struct {
	ContentType string
	Data        []byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) Engine() string {
	return "memory"
}

func (m *Memory) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return fmt.Sprintf("memory://%s", key), nil
}

// Get 读取已上传的对象
func (m *Memory) Get(key string) (Object, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}
