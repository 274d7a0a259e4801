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
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/field"
)

// AllConfig 进程使用的全部配置
type AllConfig struct {
	API        API        `yaml:"api"`
	Firebase   Firebase   `yaml:"firebase"`
	Redis      Redis      `yaml:"redis"`
	Mongo      Mongo      `yaml:"mongo"`
	Kafka      Kafka      `yaml:"kafka"`
	Object     Object     `yaml:"object"`
	Log        Log        `yaml:"log"`
	LocalCache LocalCache `yaml:"localCache"`
}

// Default 返回所有可选项都已填充默认值的配置
func Default() *AllConfig {
	c := &AllConfig{}
	c.API.Api.Ports = []int{10002}
	c.API.Api.CompressionLevel = -1
	c.API.Api.AllowedOrigins = []string{"*"}
	c.API.RateLimit.RequestsPerSecond = 20
	c.API.RateLimit.Burst = 40
	c.API.Database.Driver = DriverFirestore
	c.API.Database.ProfileStore = DriverFirestore
	c.API.Chat = Chat{
		TypingDebounce:     3 * time.Second,
		TypingStaleness:    5 * time.Second,
		ProfileConcurrency: 8,
		MaxTextLength:      4000,
		HistoryPageSize:    50,
	}
	c.API.Gateway = Gateway{
		MaxConnNum:       100000,
		MaxMessageSize:   64 * 1024,
		HandshakeTimeout: 10 * time.Second,
		WriteBufferSize:  4096,
		OnlineExpire:     3 * time.Minute,
	}
	c.API.Push = Push{
		Enable:        PushDummy,
		BatchSize:     100,
		BatchInterval: time.Second,
		Worker:        4,
	}
	c.API.CronTask = CronTask{
		TypingSweep:  "@every 5m",
		TypingMaxAge: 10 * time.Minute,
	}
	c.Object = Object{Enable: ObjectFirebase, MaxImageWidth: 1280, MaxImageBytes: 10 << 20}
	c.Redis.Disable = true
	c.Log = Log{StorageLocation: "../logs/", RotationTime: 24, RemainRotationCount: 2, RemainLogLevel: 6, IsStdout: true}
	return c
}

// Load 读取配置目录，目录下的.env先写入环境变量
// 除connect-api.yml以外的文件缺失时沿用默认值
func Load(folder string) (*AllConfig, error) {
	if err := godotenv.Load(filepath.Join(folder, DotEnvFile)); err != nil && !os.IsNotExist(errs.Unwrap(err)) {
		return nil, errs.WrapMsg(err, "load dotenv failed", "folder", folder)
	}
	c := Default()
	files := []struct {
		name     string
		required bool
		conf     any
	}{
		{name: ConnectAPICfgFileName, required: true, conf: &c.API},
		{name: FirebaseCfgFileName, conf: &c.Firebase},
		{name: RedisCfgFileName, conf: &c.Redis},
		{name: MongodbCfgFileName, conf: &c.Mongo},
		{name: KafkaCfgFileName, conf: &c.Kafka},
		{name: ObjectCfgFileName, conf: &c.Object},
		{name: LogCfgFileName, conf: &c.Log},
		{name: LocalCacheCfgFileName, conf: &c.LocalCache},
	}
	for _, f := range files {
		path := filepath.Join(folder, f.name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) && !f.required {
				continue
			}
			return nil, errs.WrapMsg(err, "stat config file failed", "path", path)
		}
		if err := LoadConfig(path, EnvPrefixMap[f.name], f.conf); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetDefaultConfigPath 相对可执行文件的默认配置目录
func GetDefaultConfigPath() (string, error) {
	if path := os.Getenv(MountConfigFilePath); path != "" {
		return path, nil
	}
	executablePath, err := os.Executable()
	if err != nil {
		return "", errs.WrapMsg(err, "failed to get executable path")
	}
	configPath, err := field.OutDir(filepath.Join(filepath.Dir(executablePath), DefaultFolderPath))
	if err != nil {
		return "", errs.WrapMsg(err, "failed to get output directory", "outDir", filepath.Join(filepath.Dir(executablePath), DefaultFolderPath))
	}
	return configPath, nil
}
