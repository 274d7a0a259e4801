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

// Package optimistic 乐观更新：先修改本地状态，远端写入失败后回滚
package optimistic

import (
	"context"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
)

// Mutation 一次乐观更新
// Apply修改本地状态并立即生效；Commit执行远端写入；Commit失败时调用Rollback恢复本地状态
type Mutation struct {
	Name     string
	Apply    func()
	Commit   func(ctx context.Context) error
	Rollback func()
}

// Run 执行乐观更新，返回Commit的错误
func (m Mutation) Run(ctx context.Context) error {
	if m.Commit == nil {
		return errs.ErrArgs.WrapMsg("optimistic mutation without commit", "name", m.Name)
	}
	if m.Apply != nil {
		m.Apply()
	}
	if err := m.Commit(ctx); err != nil {
		log.ZWarn(ctx, "optimistic mutation rolled back", err, "name", m.Name)
		if m.Rollback != nil {
			m.Rollback()
		}
		return err
	}
	return nil
}
