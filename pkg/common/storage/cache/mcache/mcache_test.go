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

package mcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewOnlineCache(50 * time.Millisecond)

	online, err := c.SetOnline(ctx, "user_aaa", []string{"c1", "c2"}, nil)
	require.NoError(t, err)
	assert.True(t, online)

	online, err = c.SetOnline(ctx, "user_aaa", nil, []string{"c1"})
	require.NoError(t, err)
	assert.True(t, online)

	conns, err := c.GetOnline(ctx, "user_aaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, conns)

	require.Eventually(t, func() bool {
		conns, err := c.GetOnline(ctx, "user_aaa")
		return err == nil && len(conns) == 0
	}, time.Second, 10*time.Millisecond)

	online, err = c.SetOnline(ctx, "user_aaa", nil, []string{"c2"})
	require.NoError(t, err)
	assert.False(t, online)
}

func TestOnlineCacheRenew(t *testing.T) {
	ctx := context.Background()
	c := NewOnlineCache(200 * time.Millisecond)
	_, err := c.SetOnline(ctx, "user_bbb", []string{"c1"}, nil)
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)
	_, err = c.SetOnline(ctx, "user_bbb", []string{"c1"}, nil)
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)

	conns, err := c.GetOnline(ctx, "user_bbb")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, conns)

	other, err := c.GetOnline(ctx, "user_ccc")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPushTokenCache(t *testing.T) {
	ctx := context.Background()
	c := NewPushTokenCache()
	require.NoError(t, c.SetToken(ctx, "user_aaa", "t1"))
	require.NoError(t, c.SetToken(ctx, "user_aaa", "t1"))
	tokens, err := c.GetTokens(ctx, "user_aaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, tokens)
	require.NoError(t, c.DelToken(ctx, "user_aaa", "t1"))
	tokens, err = c.GetTokens(ctx, "user_aaa")
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.Error(t, c.SetToken(ctx, "user_aaa", ""))
}
