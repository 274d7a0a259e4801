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

package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/storage/database/memdb"
)

func TestSweepTyping(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	db := memdb.New(memdb.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	require.NoError(t, db.Typing().Set(ctx, "c1", "amara", true))
	clock = base.Add(20 * time.Minute)
	require.NoError(t, db.Typing().Set(ctx, "c2", "kofi", true))

	srv := newCronServer(&config.CronTask{}, db.Typing())
	assert.Equal(t, DefaultTypingMaxAge, srv.maxAge)
	srv.now = func() time.Time { return base.Add(25 * time.Minute) }
	srv.sweepTyping()

	n, err := db.Typing().DeleteOlderThan(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the fresh signal should survive the sweep")
}

func TestStartInvalidSpec(t *testing.T) {
	err := Start(context.Background(), &config.CronTask{TypingSweep: "not a spec"}, memdb.New().Typing())
	assert.Error(t, err)
}

func TestStartStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Start(ctx, &config.CronTask{}, memdb.New().Typing())
	}()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cron did not stop")
	}
}

func TestRunMemoryDriver(t *testing.T) {
	conf := config.Default()
	conf.API.Database.Driver = config.DriverMemory
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, Run(ctx, conf, ""))

	conf.API.Database.Driver = "cassandra"
	assert.Error(t, Run(context.Background(), conf, ""))
}
