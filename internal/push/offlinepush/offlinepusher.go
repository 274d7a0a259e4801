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

package offlinepush

import (
	"context"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/openimsdk/tools/errs"

	"github.com/saloneskills/connect/internal/push/offlinepush/dummy"
	"github.com/saloneskills/connect/internal/push/offlinepush/fcm"
	"github.com/saloneskills/connect/internal/push/offlinepush/options"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
)

type OfflinePusher interface {
	Push(ctx context.Context, userIDs []string, title, content string, opts *options.Opts) error
}

// NewOfflinePusher push.enable为fcm时需要firebase应用，其余取值退化为dummy
func NewOfflinePusher(ctx context.Context, conf *config.Push, tokens cache.PushTokenCache, app *firebase.App) (OfflinePusher, error) {
	switch strings.ToLower(conf.Enable) {
	case config.PushFCM:
		if app == nil {
			return nil, errs.ErrArgs.WrapMsg("fcm push requires firebase config")
		}
		return fcm.NewClient(ctx, app, tokens)
	default:
		return dummy.NewClient(), nil
	}
}
