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
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/openimsdk/tools/errs"
	"github.com/spf13/viper"
)

// envKeyReplacer chat.typingDebounce -> <PREFIX>_CHAT_TYPINGDEBOUNCE
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// decodeHook 环境变量只能给出字符串，列表按逗号拆分，时长按time.ParseDuration解析
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
)

func newFileViper(path, envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	return v
}

// LoadConfig 读取单个配置文件到out，同名环境变量（envPrefix_键路径）优先
func LoadConfig(path string, envPrefix string, out any) error {
	v := newFileViper(path, envPrefix)
	if err := v.ReadInConfig(); err != nil {
		return errs.WrapMsg(err, "read config file failed", "path", path, "envPrefix", envPrefix)
	}
	err := v.Unmarshal(out, viper.DecodeHook(decodeHook), func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
	})
	if err != nil {
		return errs.WrapMsg(err, "decode config failed", "path", path, "envPrefix", envPrefix)
	}
	return nil
}
