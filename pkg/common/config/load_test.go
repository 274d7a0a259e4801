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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConnectAPICfgFileName, `
api:
  ports: [10088]
database:
  driver: memory
chat:
  typingDebounce: 2s
auth:
  secret: ""
`)
	writeFile(t, dir, RedisCfgFileName, `
disable: false
address: [127.0.0.1:6379]
storage: 3
`)
	t.Setenv("CONNECT_CONNECT_API_AUTH_SECRET", "s3cret")

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{10088}, c.API.Api.Ports)
	assert.Equal(t, DriverMemory, c.API.Database.Driver)
	assert.Equal(t, 2*time.Second, c.API.Chat.TypingDebounce)
	assert.Equal(t, 5*time.Second, c.API.Chat.TypingStaleness)
	assert.Equal(t, "s3cret", c.API.Auth.Secret)
	assert.False(t, c.Redis.Disable)
	assert.Equal(t, 3, c.Redis.Build().DB)
	assert.Equal(t, ObjectFirebase, c.Object.Enable)
}

func TestLoadRequiresAPIConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestEnvPrefixMap(t *testing.T) {
	assert.Equal(t, "CONNECT_CONNECT_API", EnvPrefixMap[ConnectAPICfgFileName])
	assert.Equal(t, "CONNECT_LOCAL_CACHE", EnvPrefixMap[LocalCacheCfgFileName])
}

func TestCacheConfig(t *testing.T) {
	c := CacheConfig{Topic: "delete_cache_user", SlotNum: 10, SlotSize: 100, SuccessExpire: 60, FailedExpire: 5}
	assert.True(t, c.Enable())
	assert.Equal(t, time.Minute, c.Success())
	assert.Equal(t, 5*time.Second, c.Failed())
	assert.False(t, (&CacheConfig{SlotNum: 1, SlotSize: 1}).Enable())
}

func TestLoadConfigEnvListAndDuration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RedisCfgFileName, `
address: [127.0.0.1:6379]
`)
	writeFile(t, dir, ConnectAPICfgFileName, `
chat:
  typingStaleness: 5s
`)
	t.Setenv("CONNECT_REDIS_ADDRESS", "10.0.0.1:6379,10.0.0.2:6379")
	t.Setenv("CONNECT_CONNECT_API_CHAT_TYPINGSTALENESS", "750ms")

	var r Redis
	require.NoError(t, LoadConfig(filepath.Join(dir, RedisCfgFileName), EnvPrefixMap[RedisCfgFileName], &r))
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, r.Address)

	var api API
	require.NoError(t, LoadConfig(filepath.Join(dir, ConnectAPICfgFileName), EnvPrefixMap[ConnectAPICfgFileName], &api))
	assert.Equal(t, 750*time.Millisecond, api.Chat.TypingStaleness)
}
