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

package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/saloneskills/connect/internal/events"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/model"
	"github.com/saloneskills/connect/pkg/common/storage/objstore"
)

// SendText 发送文本消息，会话不存在时随消息一起创建
func (s *Service) SendText(ctx context.Context, userID, peerID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.ErrArgs.WrapMsg("message text is empty")
	}
	if utf8.RuneCountInString(text) > s.conf.MaxTextLength {
		return nil, errs.ErrArgs.WrapMsg("message text too long", "max", s.conf.MaxTextLength)
	}
	return s.send(ctx, userID, peerID, &model.Message{Type: model.MessageTypeText, Text: text})
}

// SendImage 压缩图片并上传到对象存储，再发送携带下载地址的图片消息
func (s *Service) SendImage(ctx context.Context, userID, peerID string, data []byte) (*model.Message, error) {
	if err := ValidatePeers(userID, peerID); err != nil {
		return nil, err
	}
	img, err := objstore.PrepareImage(data, s.conf.MaxImageWidth)
	if err != nil {
		return nil, err
	}
	conversationID := ConversationID(userID, peerID)
	key := fmt.Sprintf("chat/%s/%s.jpg", conversationID, uuid.New().String())
	url, err := s.store.Upload(ctx, key, objstore.ImageContentType, img)
	if err != nil {
		return nil, servererrs.ErrUpload.WrapMsg(err.Error(), "engine", s.store.Engine(), "key", key)
	}
	log.ZDebug(ctx, "chat image uploaded", "conversationID", conversationID, "key", key, "size", len(img))
	return s.send(ctx, userID, peerID, &model.Message{Type: model.MessageTypeImage, ImageURL: url})
}

func (s *Service) send(ctx context.Context, userID, peerID string, msg *model.Message) (*model.Message, error) {
	if err := ValidatePeers(userID, peerID); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetProfile(ctx, peerID); err != nil {
		if errs.ErrRecordNotFound.Is(errs.Unwrap(err)) {
			return nil, errs.ErrArgs.WrapMsg("peer profile not found", "peerID", peerID)
		}
		return nil, err
	}
	conversationID := ConversationID(userID, peerID)
	participants := []string{userID, peerID}
	sort.Strings(participants)
	msg.ID = uuid.New().String()
	msg.ConversationID = conversationID
	msg.SenderID = userID
	msg.Reactions = map[string][]string{}
	if err := s.db.Conversation.AppendMessage(ctx, participants, peerID, msg); err != nil {
		return nil, err
	}
	prommetrics.MessageSentCounter.WithLabelValues(msg.Type).Inc()
	log.ZInfo(ctx, "message sent", "conversationID", conversationID, "messageID", msg.ID, "type", msg.Type)
	events.Emit(ctx, s.publisher, &events.Event{
		Type:    events.TypeMessageSent,
		Key:     conversationID,
		ActorID: userID,
		Payload: map[string]any{"messageID": msg.ID, "recipientID": peerID, "type": msg.Type},
	})
	if s.offline != nil {
		s.offline.NotifyOffline(ctx, peerID, msg)
	}
	return msg, nil
}

// OpenConversation 校验对方并返回会话ID，会话在首条消息写入时才会创建
func (s *Service) OpenConversation(ctx context.Context, userID, peerID string) (string, *model.UserProfile, error) {
	if err := ValidatePeers(userID, peerID); err != nil {
		return "", nil, err
	}
	peer, err := s.profiles.GetProfile(ctx, peerID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(errs.Unwrap(err)) {
			return "", nil, errs.ErrArgs.WrapMsg("peer profile not found", "peerID", peerID)
		}
		return "", nil, err
	}
	return ConversationID(userID, peerID), peer, nil
}

// DeleteConversation 删除会话及其消息，只有参与者可以删除
func (s *Service) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	conv, err := s.db.Conversation.Take(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return servererrs.ErrNotParticipant.WrapMsg("not a participant", "conversationID", conversationID, "userID", userID)
	}
	if err := s.db.Conversation.Delete(ctx, conversationID); err != nil {
		return err
	}
	log.ZInfo(ctx, "conversation deleted", "conversationID", conversationID, "userID", userID)
	events.Emit(ctx, s.publisher, &events.Event{
		Type:    events.TypeConversationDeleted,
		Key:     conversationID,
		ActorID: userID,
	})
	return nil
}

// History 按时间倒序读取一页历史消息，before为零值时从最新一条开始
func (s *Service) History(ctx context.Context, userID, conversationID string, before time.Time, limit int) ([]*model.Message, error) {
	conv, err := s.db.Conversation.Take(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, servererrs.ErrNotParticipant.WrapMsg("not a participant", "conversationID", conversationID, "userID", userID)
	}
	if limit <= 0 || limit > s.conf.HistoryPageSize {
		limit = s.conf.HistoryPageSize
	}
	return s.db.Message.Page(ctx, conversationID, before, limit)
}

// React 对会话中的一条消息切换表态，只有参与者可以操作
func (s *Service) React(ctx context.Context, userID, conversationID, messageID, emoji string) (map[string][]string, error) {
	conv, err := s.db.Conversation.Take(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, servererrs.ErrNotParticipant.WrapMsg("not a participant", "conversationID", conversationID, "userID", userID)
	}
	return s.reactor.Toggle(ctx, model.ReactionTarget{
		Kind:     model.ReactionTargetMessage,
		ParentID: conversationID,
		ID:       messageID,
	}, userID, emoji)
}

// SubscribeMessages 监听会话消息，见MessageStream
func (s *Service) SubscribeMessages(ctx context.Context, conversationID, userID string, h MessageHandler) *Subscription {
	return s.stream.Subscribe(ctx, conversationID, userID, h)
}

// SubscribeConversations 监听用户的会话列表，见ConversationList
func (s *Service) SubscribeConversations(ctx context.Context, userID string, h ConversationHandler) *Subscription {
	return s.conversations.Subscribe(ctx, userID, h)
}
