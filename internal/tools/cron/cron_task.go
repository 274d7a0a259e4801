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

// Package cron 定时维护任务
package cron

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"
	"github.com/robfig/cron/v3"

	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/firebaseutil"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/database/docstore"
)

const (
	DefaultTypingSweep  = "*/10 * * * *"
	DefaultTypingMaxAge = 10 * time.Minute
)

type cronServer struct {
	typing    database.Typing
	maxAge    time.Duration
	now       func() time.Time
	opPrefix  string
	opCounter atomic.Int64
}

// Run 按配置打开文档存储后执行Start
func Run(ctx context.Context, conf *config.AllConfig, configPath string) error {
	var app *firebase.App
	if strings.EqualFold(conf.API.Database.Driver, config.DriverFirestore) || conf.API.Database.Driver == "" {
		var err error
		app, err = firebaseutil.NewApp(ctx, &conf.Firebase, configPath)
		if err != nil {
			return err
		}
	}
	db, closeDB, err := docstore.Open(ctx, conf.API.Database.Driver, app)
	if err != nil {
		return err
	}
	defer closeDB()
	return Start(ctx, &conf.API.CronTask, db.Typing())
}

// Start 注册任务并阻塞到ctx取消，返回前等待正在执行的任务结束
func Start(ctx context.Context, conf *config.CronTask, typing database.Typing) error {
	srv := newCronServer(conf, typing)
	spec := conf.TypingSweep
	if spec == "" {
		spec = DefaultTypingSweep
	}
	crontab := cron.New()
	if _, err := crontab.AddFunc(spec, srv.sweepTyping); err != nil {
		return errs.WrapMsg(err, "add typing sweep task failed", "spec", spec)
	}
	log.ZInfo(ctx, "start cron task", "typingSweep", spec, "typingMaxAge", srv.maxAge)
	crontab.Start()
	<-ctx.Done()
	<-crontab.Stop().Done()
	return nil
}

func newCronServer(conf *config.CronTask, typing database.Typing) *cronServer {
	maxAge := conf.TypingMaxAge
	if maxAge <= 0 {
		maxAge = DefaultTypingMaxAge
	}
	return &cronServer{
		typing:   typing,
		maxAge:   maxAge,
		now:      time.Now,
		opPrefix: fmt.Sprintf("cron_%d_", os.Getpid()),
	}
}

// sweepTyping 删除长时间没有更新的输入状态，异常断开的客户端会留下isTyping=true
func (c *cronServer) sweepTyping() {
	operationID := fmt.Sprintf("%s%d", c.opPrefix, c.opCounter.Add(1))
	ctx := mcontext.SetOperationID(context.Background(), operationID)
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	start := c.now()
	before := start.Add(-c.maxAge)
	n, err := c.typing.DeleteOlderThan(ctx, before)
	if err != nil {
		log.ZError(ctx, "sweep typing signals failed", err, "before", before)
		return
	}
	log.ZInfo(ctx, "sweep typing signals", "before", before, "deleted", n, "cost", time.Since(start))
}
