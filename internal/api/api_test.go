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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/pkg/common/authverify"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/prommetrics"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/cache"
	"github.com/saloneskills/connect/pkg/common/storage/cache/mcache"
	"github.com/saloneskills/connect/pkg/common/storage/database/memdb"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

const testSecret = "api-secret"

type testApi struct {
	handler http.Handler
	tokens  cache.PushTokenCache
}

type apiResp struct {
	ErrCode int             `json:"errCode"`
	ErrMsg  string          `json:"errMsg"`
	Data    json.RawMessage `json:"data"`
}

func newTestApi(t *testing.T, edit func(conf *config.API)) *testApi {
	db := memdb.New()
	for _, id := range []string{"amara", "kofi", "sia"} {
		require.NoError(t, db.User().Upsert(context.Background(), &model.UserProfile{UserID: id, DisplayName: strings.ToUpper(id)}))
	}
	chatSvc := chat.NewService(chat.Config{}, chat.Databases{
		Conversation: db.Conversation(),
		Message:      db.Message(),
		Typing:       db.Typing(),
		User:         db.User(),
		Reaction:     db.Reaction(),
	})
	feedSvc := feed.NewService(feed.Config{}, feed.Databases{
		Post:    db.Post(),
		Comment: db.Comment(),
		Follow:  db.Follow(),
		User:    db.User(),
	}, chatSvc.Reactor(), nil, nil)

	conf := &config.API{}
	conf.Api.PrometheusEnable = true
	if edit != nil {
		edit(conf)
	}
	tokens := mcache.NewPushTokenCache()
	engine := NewGinRouter(conf, &Deps{
		Chat:       chatSvc,
		Feed:       feedSvc,
		PushTokens: tokens,
		Verifier:   authverify.NewVerifier(testSecret, ""),
		Registry:   prommetrics.NewRegistry(),
	})
	return &testApi{handler: NewHandler(conf, engine), tokens: tokens}
}

func (a *testApi) do(t *testing.T, method, path, userID string, body any) (int, *apiResp) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return a.serve(t, req, userID)
}

func (a *testApi) serve(t *testing.T, req *http.Request, userID string) (int, *apiResp) {
	t.Helper()
	if userID != "" {
		token, err := authverify.BuildToken(testSecret, "", userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	var resp apiResp
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, &resp
}

func TestAuthRequired(t *testing.T) {
	a := newTestApi(t, nil)
	code, resp := a.do(t, http.MethodPost, "/chat/send", "", &SendTextReq{PeerID: "kofi", Text: "hi"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, servererrs.TokenMissingError, resp.ErrCode)

	req := httptest.NewRequest(http.MethodGet, "/feed/posts", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	code, resp = a.serve(t, req, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, servererrs.TokenInvalidError, resp.ErrCode)
}

func TestChatRoutes(t *testing.T) {
	a := newTestApi(t, nil)

	_, resp := a.do(t, http.MethodPost, "/chat/send", "amara", &SendTextReq{PeerID: "kofi", Text: "hello kofi"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	var msg model.Message
	require.NoError(t, json.Unmarshal(resp.Data, &msg))
	assert.Equal(t, chat.ConversationID("amara", "kofi"), msg.ConversationID)

	_, resp = a.do(t, http.MethodGet, "/chat/conversations/"+msg.ConversationID+"/messages?limit=10", "kofi", nil)
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	var page struct {
		Messages []*model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "hello kofi", page.Messages[0].Text)

	_, resp = a.do(t, http.MethodPost, "/chat/react", "kofi", &ReactMessageReq{
		ConversationID: msg.ConversationID, MessageID: msg.ID, Emoji: "👍",
	})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	assert.Contains(t, string(resp.Data), "kofi")

	_, resp = a.do(t, http.MethodGet, "/chat/conversations/"+msg.ConversationID+"/messages?before=yesterday", "kofi", nil)
	assert.NotZero(t, resp.ErrCode)

	_, resp = a.do(t, http.MethodDelete, "/chat/conversations/"+msg.ConversationID, "sia", nil)
	assert.Equal(t, servererrs.NotParticipantError, resp.ErrCode)

	_, resp = a.do(t, http.MethodDelete, "/chat/conversations/"+msg.ConversationID, "amara", nil)
	assert.Zero(t, resp.ErrCode, resp.ErrMsg)

	_, resp = a.do(t, http.MethodPost, "/chat/open", "amara", &OpenConversationReq{PeerID: "amara"})
	assert.NotZero(t, resp.ErrCode)

	_, resp = a.do(t, http.MethodPost, "/chat/send", "amara", map[string]string{"peerID": "kofi"})
	assert.NotZero(t, resp.ErrCode)
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSendImage(t *testing.T) {
	a := newTestApi(t, nil)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("peerID", "kofi"))
	fw, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/chat/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, resp := a.serve(t, req, "amara")
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	var msg model.Message
	require.NoError(t, json.Unmarshal(resp.Data, &msg))
	assert.Equal(t, model.MessageTypeImage, msg.Type)
	assert.NotEmpty(t, msg.ImageURL)

	req = httptest.NewRequest(http.MethodPost, "/chat/image", strings.NewReader("peerID=kofi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, resp = a.serve(t, req, "amara")
	assert.NotZero(t, resp.ErrCode)
}

func TestFeedRoutes(t *testing.T) {
	a := newTestApi(t, nil)

	_, resp := a.do(t, http.MethodPost, "/feed/posts", "amara", map[string]string{"body": "looking for a mentor"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	var post model.Post
	require.NoError(t, json.Unmarshal(resp.Data, &post))

	_, resp = a.do(t, http.MethodPost, "/feed/posts/"+post.ID+"/comments", "kofi", &CreateCommentReq{Body: "happy to help"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)

	_, resp = a.do(t, http.MethodGet, "/feed/posts/"+post.ID+"/comments", "sia", nil)
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	assert.Contains(t, string(resp.Data), "happy to help")

	_, resp = a.do(t, http.MethodPost, "/feed/react", "sia", &ReactFeedReq{PostID: post.ID, Emoji: "❤️"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)

	_, resp = a.do(t, http.MethodGet, "/feed/posts", "sia", nil)
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	assert.Contains(t, string(resp.Data), post.ID)

	_, resp = a.do(t, http.MethodPost, "/feed/follow", "sia", &FollowReq{TargetID: "amara"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	_, resp = a.do(t, http.MethodGet, "/feed/following", "sia", nil)
	assert.JSONEq(t, `{"following":["amara"]}`, string(resp.Data))
	_, resp = a.do(t, http.MethodPost, "/feed/unfollow", "sia", &FollowReq{TargetID: "amara"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	assert.NotContains(t, string(resp.Data), "amara")

	_, resp = a.do(t, http.MethodDelete, "/feed/posts/"+post.ID, "kofi", nil)
	assert.NotZero(t, resp.ErrCode)
	_, resp = a.do(t, http.MethodDelete, "/feed/posts/"+post.ID, "amara", nil)
	assert.Zero(t, resp.ErrCode, resp.ErrMsg)
}

func TestPushTokenRoutes(t *testing.T) {
	a := newTestApi(t, nil)
	_, resp := a.do(t, http.MethodPost, "/push/token", "amara", &PushTokenReq{Token: "fcm-1"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	tokens, err := a.tokens.GetTokens(context.Background(), "amara")
	require.NoError(t, err)
	assert.Equal(t, []string{"fcm-1"}, tokens)

	_, resp = a.do(t, http.MethodDelete, "/push/token", "amara", &PushTokenReq{Token: "fcm-1"})
	require.Zero(t, resp.ErrCode, resp.ErrMsg)
	tokens, err = a.tokens.GetTokens(context.Background(), "amara")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestRateLimit(t *testing.T) {
	a := newTestApi(t, func(conf *config.API) {
		conf.RateLimit.Enable = true
		conf.RateLimit.RequestsPerSecond = 0.01
		conf.RateLimit.Burst = 1
	})
	code, _ := a.do(t, http.MethodGet, "/feed/posts", "amara", nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp := a.do(t, http.MethodGet, "/feed/posts", "amara", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, servererrs.RateLimitError, resp.ErrCode)

	code, _ = a.do(t, http.MethodGet, "/feed/posts", "kofi", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthzAndMetrics(t *testing.T) {
	a := newTestApi(t, nil)
	code, resp := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	var health HealthResp
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Positive(t, health.Goroutines)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "connect_http_call_total")
}

func TestOperationIDHeader(t *testing.T) {
	a := newTestApi(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("operationID", "op-123")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Equal(t, "op-123", w.Header().Get("operationID"))
}
