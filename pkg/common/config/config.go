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

package config

import (
	"time"

	"github.com/openimsdk/tools/db/mongoutil"
	"github.com/openimsdk/tools/db/redisutil"
)

// CacheConfig 本地缓存配置
// Topic为空或者槽位参数非法时视为关闭
type CacheConfig struct {
	Topic         string `mapstructure:"topic" yaml:"topic"`                 // 缓存失效通知频道
	SlotNum       int    `mapstructure:"slotNum" yaml:"slotNum"`             // 槽位数量
	SlotSize      int    `mapstructure:"slotSize" yaml:"slotSize"`           // 每个槽位容量
	SuccessExpire int    `mapstructure:"successExpire" yaml:"successExpire"` // 成功结果过期时间（秒）
	FailedExpire  int    `mapstructure:"failedExpire" yaml:"failedExpire"`   // 失败结果过期时间（秒）
}

// LocalCache 进程内缓存，目前只缓存用户资料
type LocalCache struct {
	User CacheConfig `mapstructure:"user" yaml:"user"`
}

// Log 日志配置，字段含义与tools/log一致
type Log struct {
	StorageLocation     string `mapstructure:"storageLocation" yaml:"storageLocation"`
	RotationTime        uint   `mapstructure:"rotationTime" yaml:"rotationTime"`
	RemainRotationCount uint   `mapstructure:"remainRotationCount" yaml:"remainRotationCount"`
	RemainLogLevel      int    `mapstructure:"remainLogLevel" yaml:"remainLogLevel"`
	IsStdout            bool   `mapstructure:"isStdout" yaml:"isStdout"`
	IsJson              bool   `mapstructure:"isJson" yaml:"isJson"`
	IsSimplify          bool   `mapstructure:"isSimplify" yaml:"isSimplify"`
	WithStack           bool   `mapstructure:"withStack" yaml:"withStack"`
}

// Mongo 用户资料目录使用的MongoDB，只有profileStore为mongo时才会连接
type Mongo struct {
	URI         string   `mapstructure:"uri" yaml:"uri"`
	Address     []string `mapstructure:"address" yaml:"address"`
	Database    string   `mapstructure:"database" yaml:"database"`
	Username    string   `mapstructure:"username" yaml:"username"`
	Password    string   `mapstructure:"password" yaml:"password"`
	AuthSource  string   `mapstructure:"authSource" yaml:"authSource"`
	MaxPoolSize int      `mapstructure:"maxPoolSize" yaml:"maxPoolSize"`
	MaxRetry    int      `mapstructure:"maxRetry" yaml:"maxRetry"`
}

// Redis 缓存、在线状态、推送令牌
// Disable为true时全部退化为进程内实现
type Redis struct {
	Disable     bool     `mapstructure:"disable" yaml:"disable"`
	Address     []string `mapstructure:"address" yaml:"address"`
	Username    string   `mapstructure:"username" yaml:"username"`
	Password    string   `mapstructure:"password" yaml:"password"`
	ClusterMode bool     `mapstructure:"clusterMode" yaml:"clusterMode"`
	DB          int      `mapstructure:"storage" yaml:"storage"`
	MaxRetry    int      `mapstructure:"maxRetry" yaml:"maxRetry"`
	PoolSize    int      `mapstructure:"poolSize" yaml:"poolSize"`
}

// Kafka 聊天事件流
type Kafka struct {
	Enable       bool     `mapstructure:"enable" yaml:"enable"`
	Username     string   `mapstructure:"username" yaml:"username"`
	Password     string   `mapstructure:"password" yaml:"password"`
	ProducerAck  string   `mapstructure:"producerAck" yaml:"producerAck"`
	CompressType string   `mapstructure:"compressType" yaml:"compressType"`
	Address      []string `mapstructure:"address" yaml:"address"`
	Topic        string   `mapstructure:"topic" yaml:"topic"`
}

// Firebase 应用凭证，Firestore、Storage与FCM共用一个应用实例
type Firebase struct {
	ProjectID       string `mapstructure:"projectID" yaml:"projectID"`
	CredentialsFile string `mapstructure:"credentialsFile" yaml:"credentialsFile"`
	CredentialsJSON string `mapstructure:"credentialsJSON" yaml:"credentialsJSON"`
	StorageBucket   string `mapstructure:"storageBucket" yaml:"storageBucket"`
}

// Object 对象存储
// Enable取值：firebase、aws、memory
type Object struct {
	Enable        string `mapstructure:"enable" yaml:"enable"`
	MaxImageWidth int    `mapstructure:"maxImageWidth" yaml:"maxImageWidth"`
	MaxImageBytes int64  `mapstructure:"maxImageBytes" yaml:"maxImageBytes"`
	Aws           Aws    `mapstructure:"aws" yaml:"aws"`
}

type Aws struct {
	Region          string `mapstructure:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyID" yaml:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey" yaml:"secretAccessKey"`
	SessionToken    string `mapstructure:"sessionToken" yaml:"sessionToken"`
	PublicURL       string `mapstructure:"publicURL" yaml:"publicURL"`
}

// API connect-api.yml，进程内所有业务组件的配置
type API struct {
	Api struct {
		ListenIP         string   `mapstructure:"listenIP" yaml:"listenIP"`
		Ports            []int    `mapstructure:"ports" yaml:"ports"`
		CompressionLevel int      `mapstructure:"compressionLevel" yaml:"compressionLevel"`
		AllowedOrigins   []string `mapstructure:"allowedOrigins" yaml:"allowedOrigins"`
		PrometheusEnable bool     `mapstructure:"prometheusEnable" yaml:"prometheusEnable"`
	} `mapstructure:"api" yaml:"api"`
	Auth struct {
		Secret string `mapstructure:"secret" yaml:"secret"`
		Issuer string `mapstructure:"issuer" yaml:"issuer"`
	} `mapstructure:"auth" yaml:"auth"`
	RateLimit struct {
		Enable            bool    `mapstructure:"enable" yaml:"enable"`
		RequestsPerSecond float64 `mapstructure:"requestsPerSecond" yaml:"requestsPerSecond"`
		Burst             int     `mapstructure:"burst" yaml:"burst"`
	} `mapstructure:"rateLimit" yaml:"rateLimit"`
	Database struct {
		Driver       string `mapstructure:"driver" yaml:"driver"`
		ProfileStore string `mapstructure:"profileStore" yaml:"profileStore"`
	} `mapstructure:"database" yaml:"database"`
	Chat     Chat     `mapstructure:"chat" yaml:"chat"`
	Gateway  Gateway  `mapstructure:"gateway" yaml:"gateway"`
	Push     Push     `mapstructure:"push" yaml:"push"`
	CronTask CronTask `mapstructure:"cronTask" yaml:"cronTask"`
}

// Chat 实时会话同步参数
type Chat struct {
	TypingDebounce     time.Duration `mapstructure:"typingDebounce" yaml:"typingDebounce"`
	TypingStaleness    time.Duration `mapstructure:"typingStaleness" yaml:"typingStaleness"`
	ProfileConcurrency int           `mapstructure:"profileConcurrency" yaml:"profileConcurrency"`
	MaxTextLength      int           `mapstructure:"maxTextLength" yaml:"maxTextLength"`
	HistoryPageSize    int           `mapstructure:"historyPageSize" yaml:"historyPageSize"`
}

// Gateway 长连接网关参数
type Gateway struct {
	MaxConnNum       int64         `mapstructure:"maxConnNum" yaml:"maxConnNum"`
	MaxMessageSize   int64         `mapstructure:"maxMessageSize" yaml:"maxMessageSize"`
	HandshakeTimeout time.Duration `mapstructure:"handshakeTimeout" yaml:"handshakeTimeout"`
	WriteBufferSize  int           `mapstructure:"writeBufferSize" yaml:"writeBufferSize"`
	OnlineExpire     time.Duration `mapstructure:"onlineExpire" yaml:"onlineExpire"`
}

// Push 离线推送
// Enable取值：fcm、dummy
type Push struct {
	Enable        string        `mapstructure:"enable" yaml:"enable"`
	BatchSize     int           `mapstructure:"batchSize" yaml:"batchSize"`
	BatchInterval time.Duration `mapstructure:"batchInterval" yaml:"batchInterval"`
	Worker        int           `mapstructure:"worker" yaml:"worker"`
}

// CronTask 定时维护任务
type CronTask struct {
	TypingSweep  string        `mapstructure:"typingSweep" yaml:"typingSweep"`
	TypingMaxAge time.Duration `mapstructure:"typingMaxAge" yaml:"typingMaxAge"`
}

func (m *Mongo) Build() *mongoutil.Config {
	return &mongoutil.Config{
		Uri:         m.URI,
		Address:     m.Address,
		Database:    m.Database,
		Username:    m.Username,
		Password:    m.Password,
		AuthSource:  m.AuthSource,
		MaxPoolSize: m.MaxPoolSize,
		MaxRetry:    m.MaxRetry,
	}
}

func (r *Redis) Build() *redisutil.Config {
	return &redisutil.Config{
		ClusterMode: r.ClusterMode,
		Address:     r.Address,
		Username:    r.Username,
		Password:    r.Password,
		DB:          r.DB,
		MaxRetry:    r.MaxRetry,
		PoolSize:    r.PoolSize,
	}
}

func (l *CacheConfig) Failed() time.Duration {
	return time.Second * time.Duration(l.FailedExpire)
}

func (l *CacheConfig) Success() time.Duration {
	return time.Second * time.Duration(l.SuccessExpire)
}

func (l *CacheConfig) Enable() bool {
	return l.Topic != "" && l.SlotNum > 0 && l.SlotSize > 0
}

// 配置文件名
const (
	ConnectAPICfgFileName = "connect-api.yml"
	FirebaseCfgFileName   = "firebase.yml"
	RedisCfgFileName      = "redis.yml"
	MongodbCfgFileName    = "mongodb.yml"
	KafkaCfgFileName      = "kafka.yml"
	ObjectCfgFileName     = "object.yml"
	LogCfgFileName        = "log.yml"
	LocalCacheCfgFileName = "local-cache.yml"
)

// 存储驱动与后端选项
const (
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
	DriverMongo     = "mongo"

	ObjectFirebase = "firebase"
	ObjectAws      = "aws"
	ObjectMemory   = "memory"

	PushFCM   = "fcm"
	PushDummy = "dummy"
)
