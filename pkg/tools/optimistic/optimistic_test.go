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

package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutationCommit(t *testing.T) {
	following := false
	err := Mutation{
		Name:     "follow",
		Apply:    func() { following = true },
		Commit:   func(ctx context.Context) error { return nil },
		Rollback: func() { following = false },
	}.Run(context.Background())
	assert.NoError(t, err)
	assert.True(t, following)
}

func TestMutationRollback(t *testing.T) {
	following := false
	var seenDuringCommit bool
	remoteErr := errors.New("offline")
	err := Mutation{
		Name:  "follow",
		Apply: func() { following = true },
		Commit: func(ctx context.Context) error {
			seenDuringCommit = following
			return remoteErr
		},
		Rollback: func() { following = false },
	}.Run(context.Background())
	assert.ErrorIs(t, err, remoteErr)
	assert.True(t, seenDuringCommit)
	assert.False(t, following)
}

func TestMutationWithoutCommit(t *testing.T) {
	assert.Error(t, Mutation{Name: "noop"}.Run(context.Background()))
}
