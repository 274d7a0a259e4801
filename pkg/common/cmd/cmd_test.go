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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/saloneskills/connect/pkg/common/config"
)

func writeConfig(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConnectAPICfgFileName), []byte(`
api:
  ports: [10099]
auth:
  secret: top-secret
database:
  driver: memory
`), 0o600))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	r := NewRootCmd()
	out := &bytes.Buffer{}
	r.Command.SetOut(out)
	r.Command.SetErr(out)
	r.Command.SetArgs(args)
	err := r.Execute(context.Background())
	return out.String(), err
}

func TestConfigCmd(t *testing.T) {
	dir := writeConfig(t)
	out, err := execute(t, "config", "-c", dir)
	require.NoError(t, err)

	var printed config.AllConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &printed))
	assert.Equal(t, []int{10099}, printed.API.Api.Ports)
	assert.Equal(t, config.DriverMemory, printed.API.Database.Driver)
	assert.Equal(t, masked, printed.API.Auth.Secret)
	assert.NotContains(t, out, "top-secret")

	out, err = execute(t, "config", "-c", dir, "--show-secrets")
	require.NoError(t, err)
	assert.Contains(t, out, "top-secret")
}

func TestMissingConfigFolder(t *testing.T) {
	_, err := execute(t, "config", "-c", filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestRedactKeepsEmpty(t *testing.T) {
	c := config.Default()
	c.Redis.Password = "pw"
	redact(c)
	assert.Equal(t, masked, c.Redis.Password)
	assert.Empty(t, c.API.Auth.Secret)
}
