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

package memdb

import (
	"context"

	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type reactionDB struct {
	db *DB
}

// locate 返回目标文档的表态字段地址以及刷新版本号的函数，调用方必须持有db.mu
func (r *reactionDB) locate(target model.ReactionTarget) (*map[string][]string, func(), error) {
	switch target.Kind {
	case model.ReactionTargetMessage:
		if it, ok := r.db.messages[target.ParentID][target.ID]; ok {
			return &it.doc.Reactions, func() { it.ver = r.db.nextVersion() }, nil
		}
	case model.ReactionTargetPost:
		if it, ok := r.db.posts[target.ID]; ok {
			return &it.doc.Reactions, func() { it.ver = r.db.nextVersion() }, nil
		}
	case model.ReactionTargetComment:
		if it, ok := r.db.comments[target.ParentID][target.ID]; ok {
			return &it.doc.Reactions, func() { it.ver = r.db.nextVersion() }, nil
		}
	default:
		return nil, nil, errs.ErrArgs.WrapMsg("unknown reaction target", "kind", target.Kind)
	}
	return nil, nil, errs.ErrRecordNotFound.WrapMsg("reaction target not found", "kind", target.Kind, "parentID", target.ParentID, "id", target.ID)
}

func (r *reactionDB) UpdateReactions(ctx context.Context, target model.ReactionTarget, fn func(reactions map[string][]string) (map[string][]string, error)) (map[string][]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	field, touch, err := r.locate(target)
	if err != nil {
		return nil, err
	}
	next, err := fn(model.CloneReactions(*field))
	if err != nil {
		return nil, err
	}
	*field = model.CloneReactions(next)
	touch()
	r.db.commit()
	return model.CloneReactions(next), nil
}
