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

package database

import (
	"github.com/openimsdk/tools/errs"
)

// ChangeKind 快照中单个文档的变更类型
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota + 1
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change 快照中的单个文档变更
type Change[T any] struct {
	Kind ChangeKind
	Doc  T
}

// Snapshot 一次查询结果的完整快照
// Docs是查询的当前全集（按查询顺序），Changes是相对上一次快照的差异
// 第一次快照中所有文档都以ChangeAdded出现
type Snapshot[T any] struct {
	Docs    []T
	Changes []Change[T]
}

// Added 返回快照中新增的文档
func (s *Snapshot[T]) Added() []T {
	var docs []T
	for _, c := range s.Changes {
		if c.Kind == ChangeAdded {
			docs = append(docs, c.Doc)
		}
	}
	return docs
}

// Listener 查询快照监听器
// Next阻塞直到下一次快照到达；Stop之后或监听ctx结束后Next返回ErrListenerStopped
// Stop可以重复调用
type Listener[T any] interface {
	Next() (*Snapshot[T], error)
	Stop()
}

// ErrListenerStopped 监听器已经停止
var ErrListenerStopped = errs.New("listener stopped")

// IsListenerStopped 判断err是否表示监听器被正常停止
func IsListenerStopped(err error) bool {
	return errs.Unwrap(err) == ErrListenerStopped
}
