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

package firebaseutil

import (
	"context"
	"testing"

	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/stretchr/testify/assert"
)

func TestClientOptions(t *testing.T) {
	assert.Len(t, ClientOptions(&config.Firebase{CredentialsJSON: "{}"}, "/etc/connect"), 1)
	assert.Len(t, ClientOptions(&config.Firebase{CredentialsFile: "sa.json"}, "/etc/connect"), 1)
	assert.Empty(t, ClientOptions(&config.Firebase{}, "/etc/connect"))
}

func TestNewAppRequiresProject(t *testing.T) {
	_, err := NewApp(context.Background(), &config.Firebase{}, "")
	assert.True(t, errs.ErrArgs.Is(errs.Unwrap(err)))
}

func TestNeeded(t *testing.T) {
	c := config.Default()
	assert.True(t, Needed(c))

	c.API.Database.Driver = config.DriverMemory
	c.API.Database.ProfileStore = config.DriverMongo
	c.Object.Enable = config.ObjectAws
	c.API.Push.Enable = config.PushDummy
	assert.False(t, Needed(c))

	c.API.Push.Enable = "FCM"
	assert.True(t, Needed(c))
}
