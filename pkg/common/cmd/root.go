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

// Package cmd 命令行入口：api提供REST与长连接，cron执行维护任务，config打印生效配置
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/spf13/cobra"

	"github.com/saloneskills/connect/pkg/common/config"
)

// Version 构建时通过 -ldflags "-X" 注入
var Version = "dev"

const loggerPrefixName = "connect.log"

type RootCmd struct {
	Command    cobra.Command
	configPath string
	conf       *config.AllConfig
}

func NewRootCmd() *RootCmd {
	r := &RootCmd{}
	r.Command = cobra.Command{
		Use:           "connect",
		Short:         "Salone Skills Connect chat and feed server",
		Long:          `Real-time conversation sync, feed and presence for Salone Skills Connect.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.loadConfig(cmd)
		},
	}
	r.Command.CompletionOptions.DisableDefaultCmd = true
	r.Command.PersistentFlags().StringP(config.FlagConf, "c", "", "path of config directory")
	r.Command.AddCommand(newApiCmd(r), newCronCmd(r), newConfigCmd(r))
	return r
}

func (r *RootCmd) loadConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString(config.FlagConf)
	if err != nil {
		return errs.Wrap(err)
	}
	if path == "" {
		if path, err = config.GetDefaultConfigPath(); err != nil {
			return err
		}
	}
	conf, err := config.Load(path)
	if err != nil {
		return err
	}
	r.configPath = path
	r.conf = conf
	return nil
}

func (r *RootCmd) initLog(moduleName string) error {
	l := r.conf.Log
	err := log.InitLoggerFromConfig(
		loggerPrefixName,
		moduleName,
		"", "",
		l.RemainLogLevel,
		l.IsStdout,
		l.IsJson,
		l.StorageLocation,
		l.RemainRotationCount,
		l.RotationTime,
		Version,
		l.IsSimplify,
	)
	if err != nil {
		return errs.WrapMsg(err, "init logger failed")
	}
	return nil
}

// run 初始化日志后执行fn，阻塞到ctx取消
func (r *RootCmd) run(ctx context.Context, moduleName string, fn func(ctx context.Context, conf *config.AllConfig, configPath string) error) error {
	if err := r.initLog(moduleName); err != nil {
		return err
	}
	log.CInfo(ctx, "connect server is initializing", "module", moduleName, "configPath", r.configPath, "version", Version)
	if err := fn(ctx, r.conf, r.configPath); err != nil {
		log.ZError(ctx, "connect server exit", err, "module", moduleName)
		return err
	}
	return nil
}

func (r *RootCmd) Execute(ctx context.Context) error {
	return r.Command.ExecuteContext(ctx)
}

// Exit 根据执行结果打印状态并设置退出码
func Exit(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("connect exit with error:"), err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(os.Stdout, color.GreenString("connect exit"))
}
