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

package fsdb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

type reactionDB struct {
	client *firestore.Client
}

func (r *reactionDB) ref(target model.ReactionTarget) (*firestore.DocumentRef, error) {
	switch target.Kind {
	case model.ReactionTargetMessage:
		return messageRef(r.client, target.ParentID, target.ID), nil
	case model.ReactionTargetPost:
		return postRef(r.client, target.ID), nil
	case model.ReactionTargetComment:
		return commentRef(r.client, target.ParentID, target.ID), nil
	default:
		return nil, errs.ErrArgs.WrapMsg("unknown reaction target", "kind", target.Kind)
	}
}

// UpdateReactions 事务内读-改-写，冲突时由客户端库重试整个函数
func (r *reactionDB) UpdateReactions(ctx context.Context, target model.ReactionTarget, fn func(reactions map[string][]string) (map[string][]string, error)) (map[string][]string, error) {
	ref, err := r.ref(target)
	if err != nil {
		return nil, err
	}
	var result map[string][]string
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current struct {
			Reactions map[string][]string `firestore:"reactions"`
		}
		if err := doc.DataTo(&current); err != nil {
			return errs.WrapMsg(err, "decode reactions failed")
		}
		next, err := fn(model.CloneReactions(current.Reactions))
		if err != nil {
			return err
		}
		if next == nil {
			next = map[string][]string{}
		}
		result = next
		return tx.Update(ref, []firestore.Update{{Path: "reactions", Value: next}})
	})
	if err != nil {
		return nil, wrap(err, "reaction target not found", "kind", target.Kind, "parentID", target.ParentID, "id", target.ID)
	}
	return model.CloneReactions(result), nil
}
