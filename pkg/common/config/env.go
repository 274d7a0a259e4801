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

import "strings"

// EnvPrefix 环境变量公共前缀
const EnvPrefix = "CONNECT"

// EnvPrefixMap 配置文件名到环境变量前缀的映射
// 例如connect-api.yml对应CONNECT_CONNECT_API，api.ports可以用CONNECT_CONNECT_API_API_PORTS覆盖
var EnvPrefixMap map[string]string

func init() {
	EnvPrefixMap = make(map[string]string)
	fileNames := []string{
		ConnectAPICfgFileName,
		FirebaseCfgFileName,
		RedisCfgFileName,
		MongodbCfgFileName,
		KafkaCfgFileName,
		ObjectCfgFileName,
		LogCfgFileName,
		LocalCacheCfgFileName,
	}
	for _, fileName := range fileNames {
		envKey := strings.TrimSuffix(strings.TrimSuffix(fileName, ".yml"), ".yaml")
		envKey = EnvPrefix + "_" + envKey
		envKey = strings.ToUpper(strings.ReplaceAll(envKey, "-", "_"))
		EnvPrefixMap[fileName] = envKey
	}
}
