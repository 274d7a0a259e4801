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

const (
	// FlagConf 命令行参数：配置目录
	FlagConf = "config_folder_path"

	// MountConfigFilePath 容器部署时通过该环境变量指定配置目录
	MountConfigFilePath = "CONFIG_PATH"

	// DefaultFolderPath 未指定时相对可执行文件的配置目录
	DefaultFolderPath = "../config/"

	// DotEnvFile 启动时尝试加载的.env文件
	DotEnvFile = ".env"
)
