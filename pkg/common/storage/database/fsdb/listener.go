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
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type decoder[T any] func(doc *firestore.DocumentSnapshot) (T, error)

func listenError(err error) error {
	if err == iterator.Done || errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
		return database.ErrListenerStopped.Wrap()
	}
	return errs.WrapMsg(err, "firestore listen failed")
}

func changeKind(kind firestore.DocumentChangeKind) database.ChangeKind {
	switch kind {
	case firestore.DocumentAdded:
		return database.ChangeAdded
	case firestore.DocumentRemoved:
		return database.ChangeRemoved
	default:
		return database.ChangeModified
	}
}

// queryListener 查询监听，首个快照中的全部文档都是Added
type queryListener[T any] struct {
	it     *firestore.QuerySnapshotIterator
	decode decoder[T]
	once   sync.Once
}

func listenQuery[T any](ctx context.Context, q firestore.Query, decode decoder[T]) database.Listener[T] {
	return &queryListener[T]{it: q.Snapshots(ctx), decode: decode}
}

func (l *queryListener[T]) Next() (*database.Snapshot[T], error) {
	qs, err := l.it.Next()
	if err != nil {
		return nil, listenError(err)
	}
	docs, err := qs.Documents.GetAll()
	if err != nil {
		return nil, listenError(err)
	}
	snap := &database.Snapshot[T]{
		Docs:    make([]T, 0, len(docs)),
		Changes: make([]database.Change[T], 0, len(qs.Changes)),
	}
	for _, doc := range docs {
		v, err := l.decode(doc)
		if err != nil {
			return nil, err
		}
		snap.Docs = append(snap.Docs, v)
	}
	for _, c := range qs.Changes {
		v, err := l.decode(c.Doc)
		if err != nil {
			return nil, err
		}
		snap.Changes = append(snap.Changes, database.Change[T]{Kind: changeKind(c.Kind), Doc: v})
	}
	return snap, nil
}

func (l *queryListener[T]) Stop() {
	l.once.Do(l.it.Stop)
}

// docListener 单文档监听，文档不存在时快照为空
type docListener[T any] struct {
	it     *firestore.DocumentSnapshotIterator
	decode decoder[T]
	prev   *T
	once   sync.Once
}

func listenDoc[T any](ctx context.Context, ref *firestore.DocumentRef, decode decoder[T]) database.Listener[T] {
	return &docListener[T]{it: ref.Snapshots(ctx), decode: decode}
}

func (l *docListener[T]) Next() (*database.Snapshot[T], error) {
	doc, err := l.it.Next()
	if err != nil {
		return nil, listenError(err)
	}
	snap := &database.Snapshot[T]{}
	if !doc.Exists() {
		if l.prev != nil {
			snap.Changes = []database.Change[T]{{Kind: database.ChangeRemoved, Doc: *l.prev}}
			l.prev = nil
		}
		return snap, nil
	}
	v, err := l.decode(doc)
	if err != nil {
		return nil, err
	}
	kind := database.ChangeAdded
	if l.prev != nil {
		kind = database.ChangeModified
	}
	l.prev = &v
	snap.Docs = []T{v}
	snap.Changes = []database.Change[T]{{Kind: kind, Doc: v}}
	return snap, nil
}

func (l *docListener[T]) Stop() {
	l.once.Do(l.it.Stop)
}
