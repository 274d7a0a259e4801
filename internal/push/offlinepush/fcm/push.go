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

package fcm

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"

	"github.com/saloneskills/connect/internal/push/offlinepush/options"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
)

// SinglePushCountLimit SendEach单次最多500条，留出余量
const SinglePushCountLimit = 400

// Sender messaging.Client的发送部分
type Sender interface {
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

type Fcm struct {
	sender Sender
	tokens cache.PushTokenCache
}

func NewClient(ctx context.Context, app *firebase.App, tokens cache.PushTokenCache) (*Fcm, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errs.WrapMsg(err, "firebase messaging init failed")
	}
	return NewWithSender(client, tokens), nil
}

func NewWithSender(sender Sender, tokens cache.PushTokenCache) *Fcm {
	return &Fcm{sender: sender, tokens: tokens}
}

type target struct {
	userID string
	token  string
}

func (f *Fcm) Push(ctx context.Context, userIDs []string, title, content string, opts *options.Opts) error {
	notification := &messaging.Notification{Title: title, Body: content}
	apns := &messaging.APNSConfig{Payload: &messaging.APNSPayload{Aps: &messaging.Aps{}}}
	if opts != nil {
		apns.Payload.Aps.Sound = opts.Sound
		if opts.Badge > 0 {
			badge := opts.Badge
			apns.Payload.Aps.Badge = &badge
		}
	}
	if apns.Payload.Aps.Sound == "" {
		apns.Payload.Aps.Sound = "default"
	}

	var (
		messages []*messaging.Message
		targets  []target
		fail     int
		errText  strings.Builder
	)
	send := func() {
		if len(messages) == 0 {
			return
		}
		resp, err := f.sender.SendEach(ctx, messages)
		if err != nil {
			fail += len(messages)
			errText.WriteString(err.Error())
			errText.WriteByte('.')
		} else {
			fail += resp.FailureCount
			for i, r := range resp.Responses {
				if r.Success {
					continue
				}
				if messaging.IsRegistrationTokenNotRegistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
					if err := f.tokens.DelToken(ctx, targets[i].userID, targets[i].token); err != nil {
						log.ZWarn(ctx, "delete stale fcm token failed", err, "userID", targets[i].userID)
					}
					continue
				}
				errText.WriteString(r.Error.Error())
				errText.WriteByte('.')
			}
		}
		messages = messages[:0]
		targets = targets[:0]
	}

	for _, userID := range userIDs {
		tokens, err := f.tokens.GetTokens(ctx, userID)
		if err != nil {
			log.ZWarn(ctx, "get fcm tokens failed", err, "userID", userID)
			continue
		}
		for _, token := range tokens {
			messages = append(messages, &messaging.Message{
				Token:        token,
				Notification: notification,
				APNS:         apns,
				Data:         opts.Data(),
			})
			targets = append(targets, target{userID: userID, token: token})
			if len(messages) >= SinglePushCountLimit {
				send()
			}
		}
	}
	send()
	if fail != 0 && errText.Len() > 0 {
		return errs.New(fmt.Sprintf("%d fcm messages failed: %s", fail, errText.String())).Wrap()
	}
	return nil
}
