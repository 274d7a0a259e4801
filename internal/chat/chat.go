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

// Package chat 一对一会话的实时同步
// 会话、消息、输入状态、在线状态全部以文档存储的实时监听为唯一数据源，
// 这里只负责把快照翻译成界面所需的数据，并在合适的时机写回已读、未读、输入状态
package chat

import (
	"context"
	"time"

	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/storage/database"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/common/storage/objstore"
)

// Config 会话同步参数，零值字段使用默认值
type Config struct {
	TypingDebounce     time.Duration
	TypingStaleness    time.Duration
	ProfileConcurrency int
	MaxTextLength      int
	MaxImageWidth      int
	HistoryPageSize    int
}

const (
	DefaultTypingDebounce     = 3 * time.Second
	DefaultTypingStaleness    = 5 * time.Second
	DefaultProfileConcurrency = 8
	DefaultMaxTextLength      = 4000
	DefaultMaxImageWidth      = 1280
	DefaultHistoryPageSize    = 50
)

func (c *Config) withDefaults() Config {
	out := *c
	if out.TypingDebounce <= 0 {
		out.TypingDebounce = DefaultTypingDebounce
	}
	if out.TypingStaleness <= 0 {
		out.TypingStaleness = DefaultTypingStaleness
	}
	if out.ProfileConcurrency <= 0 {
		out.ProfileConcurrency = DefaultProfileConcurrency
	}
	if out.MaxTextLength <= 0 {
		out.MaxTextLength = DefaultMaxTextLength
	}
	if out.MaxImageWidth <= 0 {
		out.MaxImageWidth = DefaultMaxImageWidth
	}
	if out.HistoryPageSize <= 0 {
		out.HistoryPageSize = DefaultHistoryPageSize
	}
	return out
}

// ProfileGetter 读取用户资料，实现通常带有本地缓存与redis缓存
type ProfileGetter interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

// OfflineNotifier 新消息的离线提醒，由推送模块实现
type OfflineNotifier interface {
	NotifyOffline(ctx context.Context, recipientID string, msg *model.Message)
}

// Databases 会话同步依赖的存储
type Databases struct {
	Conversation database.Conversation
	Message      database.Message
	Typing       database.Typing
	User         database.User
	Reaction     database.Reaction
}

type Option func(s *Service)

func WithProfileGetter(profiles ProfileGetter) Option {
	return func(s *Service) {
		s.profiles = profiles
	}
}

func WithObjectStore(store objstore.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithOfflineNotifier(offline OfflineNotifier) Option {
	return func(s *Service) {
		s.offline = offline
	}
}

// WithClock 替换本地时钟，只影响输入状态的过期判断
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service 会话同步服务
type Service struct {
	conf      Config
	db        Databases
	profiles  ProfileGetter
	store     objstore.Store
	publisher events.Publisher
	offline   OfflineNotifier
	now       func() time.Time

	stream        *MessageStream
	readState     *ReadState
	typing        *TypingWatcher
	conversations *ConversationList
	reactor       *Reactor
}

func NewService(conf Config, db Databases, opts ...Option) *Service {
	s := &Service{
		conf:      conf.withDefaults(),
		db:        db,
		profiles:  NewDatabaseProfileGetter(db.User),
		store:     objstore.NewMemory(),
		publisher: events.NewNopPublisher(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.stream = &MessageStream{msgDB: db.Message}
	s.readState = &ReadState{convDB: db.Conversation, msgDB: db.Message, publisher: s.publisher}
	s.typing = &TypingWatcher{typingDB: db.Typing, window: s.conf.TypingStaleness, now: s.now}
	s.conversations = &ConversationList{convDB: db.Conversation, profiles: s.profiles, concurrency: s.conf.ProfileConcurrency}
	s.reactor = NewReactor(db.Reaction, s.publisher)
	return s
}

func (s *Service) Config() Config { return s.conf }

func (s *Service) Stream() *MessageStream { return s.stream }

func (s *Service) ReadState() *ReadState { return s.readState }

func (s *Service) TypingWatcher() *TypingWatcher { return s.typing }

func (s *Service) Conversations() *ConversationList { return s.conversations }

func (s *Service) Reactor() *Reactor { return s.reactor }

// NewDatabaseProfileGetter 直接读取存储的资料获取器
func NewDatabaseProfileGetter(userDB database.User) ProfileGetter {
	return &databaseProfileGetter{userDB: userDB}
}

type databaseProfileGetter struct {
	userDB database.User
}

func (d *databaseProfileGetter) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return d.userDB.Take(ctx, userID)
}
