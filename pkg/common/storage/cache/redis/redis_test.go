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

package redis

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saloneskills/connect/pkg/common/storage/cache/cachekey"
)

func TestSplitIntoBatches(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, splitIntoBatches(keys, 2))
	assert.Equal(t, [][]string{keys}, splitIntoBatches(keys, 10))
}

func TestGroupKeysBySlotStandalone(t *testing.T) {
	db, _ := redismock.NewClientMock()
	slots, err := groupKeysBySlot(context.Background(), db, []string{"k1", "k2"})
	require.NoError(t, err)
	assert.Equal(t, map[int64][]string{0: {"k1", "k2"}}, slots)
}

func TestKeysByTopic(t *testing.T) {
	res := cachekey.KeysByTopic(map[string][]string{"profile": {cachekey.ProfileKey}}, []string{
		cachekey.GetProfileKey("user_aaa"),
		cachekey.GetOnlineKey("user_aaa"),
	})
	assert.Equal(t, map[string][]string{"profile": {cachekey.GetProfileKey("user_aaa")}}, res)
}

func newTestOnline(db redis.UniversalClient, now time.Time) *userOnline {
	return &userOnline{
		rdb:         db,
		expire:      time.Minute,
		channelName: cachekey.OnlineChannel,
		now:         func() time.Time { return now },
	}
}

func TestSetOnlinePublishesChange(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	now := time.Unix(1700000000, 0)
	s := newTestOnline(db, now)

	key := cachekey.GetOnlineKey("user_aaa")
	mock.ExpectEval(setOnlineScript, []string{key}, int64(60), now.Unix(), now.Add(time.Minute).Unix(), 0, "conn1").
		SetVal([]any{"conn1", "1"})
	mock.ExpectPublish(cachekey.OnlineChannel, "conn1:user_aaa").SetVal(1)

	online, err := s.SetOnline(ctx, "user_aaa", []string{"conn1"}, nil)
	require.NoError(t, err)
	assert.True(t, online)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOnlineUnchanged(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	now := time.Unix(1700000000, 0)
	s := newTestOnline(db, now)

	key := cachekey.GetOnlineKey("user_aaa")
	mock.ExpectEval(setOnlineScript, []string{key}, int64(60), now.Unix(), now.Add(time.Minute).Unix(), 1, "conn9").
		SetVal([]any{"0"})

	online, err := s.SetOnline(ctx, "user_aaa", nil, []string{"conn9"})
	require.NoError(t, err)
	assert.False(t, online)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOnlineEvalError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	now := time.Unix(1700000000, 0)
	s := newTestOnline(db, now)
	mock.ExpectEval(setOnlineScript, []string{cachekey.GetOnlineKey("user_aaa")}, int64(60), now.Unix(), now.Add(time.Minute).Unix(), 0, "conn1").
		SetErr(errors.New("boom"))
	_, err := s.SetOnline(context.Background(), "user_aaa", []string{"conn1"}, nil)
	assert.Error(t, err)
}

func TestGetOnline(t *testing.T) {
	db, mock := redismock.NewClientMock()
	now := time.Unix(1700000000, 0)
	s := newTestOnline(db, now)
	mock.ExpectZRangeByScore(cachekey.GetOnlineKey("user_bbb"), &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Unix(), 10),
		Max: "+inf",
	}).SetVal([]string{"conn1", "conn2"})

	conns, err := s.GetOnline(context.Background(), "user_bbb")
	require.NoError(t, err)
	assert.Equal(t, []string{"conn1", "conn2"}, conns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushTokens(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	p := NewPushTokenCache(db)
	key := cachekey.GetPushTokenKey("user_aaa")

	mock.ExpectTxPipeline()
	mock.ExpectSAdd(key, "tok1").SetVal(1)
	mock.ExpectExpire(key, pushTokenExpire).SetVal(true)
	mock.ExpectTxPipelineExec()
	require.NoError(t, p.SetToken(ctx, "user_aaa", "tok1"))

	mock.ExpectSMembers(key).SetVal([]string{"tok1"})
	tokens, err := p.GetTokens(ctx, "user_aaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok1"}, tokens)

	mock.ExpectSRem(key, "tok1").SetVal(1)
	require.NoError(t, p.DelToken(ctx, "user_aaa", "tok1"))
	require.NoError(t, p.DelToken(ctx, "user_aaa"))

	assert.Error(t, p.SetToken(ctx, "user_aaa", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}
