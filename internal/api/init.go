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

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/openimsdk/tools/db/mongoutil"
	"github.com/openimsdk/tools/db/redisutil"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/internal/msggateway"
	"github.com/saloneskills/connect/internal/push"
	"github.com/saloneskills/connect/internal/push/offlinepush"
	"github.com/saloneskills/connect/pkg/common/authverify"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/firebaseutil"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/mcache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/redis"
	"github.com/saloneskills/connect/pkg/common/storage/controller"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/database/docstore"
	"github.com/saloneskills/connect/pkg/common/storage/database/mgo"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/common/storage/objstore"
	"github.com/saloneskills/connect/pkg/common/storage/objstore/awss3"
	"github.com/saloneskills/connect/pkg/common/storage/objstore/fbstorage"
	"github.com/saloneskills/connect/pkg/localcache"
)

const shutdownTimeout = 15 * time.Second

// Start 组装全部组件并监听HTTP端口，ctx取消后优雅退出
func Start(ctx context.Context, conf *config.AllConfig, configPath string) error {
	apiConf := &conf.API
	if apiConf.Auth.Secret == "" {
		return errs.ErrArgs.WrapMsg("auth.secret is empty")
	}
	if len(apiConf.Api.Ports) == 0 {
		return errs.ErrArgs.WrapMsg("api.ports is empty")
	}

	var app *firebase.App
	if firebaseutil.Needed(conf) {
		var err error
		app, err = firebaseutil.NewApp(ctx, &conf.Firebase, configPath)
		if err != nil {
			return err
		}
	}

	db, closeDB, err := docstore.Open(ctx, apiConf.Database.Driver, app)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDB(); err != nil {
			log.ZWarn(ctx, "close document store failed", err)
		}
	}()

	userDB := db.User()
	if strings.EqualFold(apiConf.Database.ProfileStore, config.DriverMongo) {
		mgocli, err := mongoutil.NewMongoDB(ctx, conf.Mongo.Build())
		if err != nil {
			return err
		}
		userDB, err = mgo.NewUserMongo(mgocli.GetDB())
		if err != nil {
			return err
		}
	}

	caches, err := newCaches(ctx, conf, userDB)
	if err != nil {
		return err
	}
	users := controller.NewUserDatabase(userDB, caches.profile, caches.local)

	store, err := newObjectStore(ctx, conf, app)
	if err != nil {
		return err
	}

	publisher := events.NewNopPublisher()
	if conf.Kafka.Enable {
		publisher, err = events.NewKafkaPublisher(&conf.Kafka)
		if err != nil {
			return err
		}
	}
	defer publisher.Close()

	pusher, err := offlinepush.NewOfflinePusher(ctx, &apiConf.Push, caches.tokens, app)
	if err != nil {
		return err
	}
	notifier := push.NewNotifier(&apiConf.Push, caches.online, users, pusher)
	if err := notifier.Start(); err != nil {
		return err
	}
	defer notifier.Close()

	chatSvc := chat.NewService(chat.Config{
		TypingDebounce:     apiConf.Chat.TypingDebounce,
		TypingStaleness:    apiConf.Chat.TypingStaleness,
		ProfileConcurrency: apiConf.Chat.ProfileConcurrency,
		MaxTextLength:      apiConf.Chat.MaxTextLength,
		MaxImageWidth:      conf.Object.MaxImageWidth,
		HistoryPageSize:    apiConf.Chat.HistoryPageSize,
	}, chat.Databases{
		Conversation: db.Conversation(),
		Message:      db.Message(),
		Typing:       db.Typing(),
		User:         userDB,
		Reaction:     db.Reaction(),
	},
		chat.WithProfileGetter(users),
		chat.WithObjectStore(store),
		chat.WithPublisher(publisher),
		chat.WithOfflineNotifier(notifier),
	)
	feedSvc := feed.NewService(feed.Config{MaxImageWidth: conf.Object.MaxImageWidth}, feed.Databases{
		Post:    db.Post(),
		Comment: db.Comment(),
		Follow:  db.Follow(),
		User:    userDB,
	}, chatSvc.Reactor(), store, publisher)

	verifier := authverify.NewVerifier(apiConf.Auth.Secret, apiConf.Auth.Issuer)
	gateway := msggateway.NewWsServer(apiConf, verifier, chatSvc, feedSvc, caches.online, users)
	notifier.SetLocalPusher(gateway)
	gatewayCtx, cancelGateway := context.WithCancel(ctx)
	defer cancelGateway()
	go gateway.Run(gatewayCtx)

	engine := NewGinRouter(apiConf, &Deps{
		Chat:          chatSvc,
		Feed:          feedSvc,
		PushTokens:    caches.tokens,
		Verifier:      verifier,
		Gateway:       gateway,
		Registry:      prommetrics.NewRegistry(),
		MaxImageBytes: conf.Object.MaxImageBytes,
	})
	address := net.JoinHostPort(apiConf.Api.ListenIP, strconv.Itoa(apiConf.Api.Ports[0]))
	return serve(ctx, &http.Server{Addr: address, Handler: NewHandler(apiConf, engine)})
}

func serve(ctx context.Context, server *http.Server) error {
	var netErr error
	netDone := make(chan struct{})
	go func() {
		defer close(netDone)
		log.ZInfo(ctx, "api server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			netErr = errs.WrapMsg(err, "api start err", "address", server.Addr)
		}
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.WrapMsg(err, "shutdown err")
		}
		<-netDone
		return nil
	case <-netDone:
		return netErr
	}
}

type caches struct {
	profile cache.ProfileCache
	online  cache.OnlineCache
	tokens  cache.PushTokenCache
	local   localcache.Cache[*model.UserProfile]
}

// newCaches redis关闭时全部使用进程内实现，此时不启用本地缓存层
func newCaches(ctx context.Context, conf *config.AllConfig, userDB database.User) (*caches, error) {
	expire := conf.API.Gateway.OnlineExpire
	if conf.Redis.Disable {
		return &caches{
			profile: mcache.NewProfileCache(userDB),
			online:  mcache.NewOnlineCache(expire),
			tokens:  mcache.NewPushTokenCache(),
		}, nil
	}
	rdb, err := redisutil.NewRedisClient(ctx, conf.Redis.Build())
	if err != nil {
		return nil, err
	}
	userConf := conf.LocalCache.User
	c := &caches{
		online: redis.NewOnlineCache(rdb, expire),
		tokens: redis.NewPushTokenCache(rdb),
	}
	if userConf.Enable() {
		c.profile = redis.NewProfileCache(rdb, userDB, userConf.Topic)
		c.local = localcache.New[*model.UserProfile](
			localcache.WithConfig(userConf),
			localcache.WithTarget(localcache.NewMetricsTarget("user")),
		)
		go localcache.SubscribeDelete(ctx, rdb, userConf.Topic, c.local.Del)
	} else {
		c.profile = redis.NewProfileCache(rdb, userDB, "")
	}
	return c, nil
}

func newObjectStore(ctx context.Context, conf *config.AllConfig, app *firebase.App) (objstore.Store, error) {
	switch strings.ToLower(conf.Object.Enable) {
	case config.ObjectAws:
		return awss3.New(ctx, conf.Object.Aws)
	case config.ObjectMemory:
		return objstore.NewMemory(), nil
	case config.ObjectFirebase, "":
		if app == nil {
			return nil, errs.ErrArgs.WrapMsg("firebase object store requires firebase config")
		}
		return fbstorage.New(ctx, app, conf.Firebase.StorageBucket)
	default:
		return nil, errs.ErrArgs.WrapMsg("unknown object store", "enable", conf.Object.Enable)
	}
}
