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

package cmd

import (
	"github.com/openimsdk/tools/errs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saloneskills/connect/pkg/common/config"
)

const masked = "******"

func newConfigCmd(r *RootCmd) *cobra.Command {
	var showSecrets bool
	c := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := *r.conf
			if !showSecrets {
				redact(&conf)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(&conf); err != nil {
				return errs.WrapMsg(err, "encode config failed")
			}
			return errs.Wrap(enc.Close())
		},
	}
	c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secrets and passwords in clear text")
	return c
}

// redact 只修改conf本身持有的字符串字段，切片与嵌套指针不会被改写
func redact(conf *config.AllConfig) {
	for _, s := range []*string{
		&conf.API.Auth.Secret,
		&conf.Firebase.CredentialsJSON,
		&conf.Redis.Password,
		&conf.Mongo.Password,
		&conf.Mongo.URI,
		&conf.Kafka.Password,
		&conf.Object.Aws.SecretAccessKey,
		&conf.Object.Aws.SessionToken,
	} {
		if *s != "" {
			*s = masked
		}
	}
}
