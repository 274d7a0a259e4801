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

package msggateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saloneskills/connect/internal/chat"
	"github.com/saloneskills/connect/internal/feed"
	"github.com/saloneskills/connect/pkg/common/authverify"
	"github.com/saloneskills/connect/pkg/common/config"
	"github.com/saloneskills/connect/pkg/common/servererrs"
	"github.com/saloneskills/connect/pkg/common/storage/cache/mcache"
	"github.com/saloneskills/connect/pkg/common/storage/database/memdb"
	"github.com/saloneskills/connect/pkg/common/storage/model"
)

const testSecret = "gateway-secret"

type testGateway struct {
	ws  *WsServer
	db  *memdb.DB
	url string
}

type presenceRecorder struct {
	db *memdb.DB
}

func (p presenceRecorder) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	return p.db.User().UpdatePresence(ctx, userID, online, at)
}

func newTestGateway(t *testing.T) *testGateway {
	db := memdb.New()
	ctx := context.Background()
	for _, id := range []string{"amara", "kofi", "sia"} {
		require.NoError(t, db.User().Upsert(ctx, &model.UserProfile{UserID: id, DisplayName: strings.ToUpper(id)}))
	}
	chatSvc := chat.NewService(chat.Config{TypingDebounce: 50 * time.Millisecond}, chat.Databases{
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
	conf.Gateway.OnlineExpire = time.Minute
	ws := NewWsServer(conf, authverify.NewVerifier(testSecret, ""), chatSvc, feedSvc,
		mcache.NewOnlineCache(time.Minute), presenceRecorder{db: db}, WithStatusConcurrency(1))

	runCtx, cancel := context.WithCancel(ctx)
	go ws.Run(runCtx)
	srv := httptest.NewServer(ws)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testGateway{ws: ws, db: db, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (g *testGateway) dial(t *testing.T, userID string, query url.Values) *websocket.Conn {
	if query == nil {
		query = url.Values{}
	}
	if userID != "" {
		token, err := authverify.BuildToken(testSecret, "", userID, time.Hour)
		require.NoError(t, err)
		query.Set(Token, token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(g.url+"/?"+query.Encode(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type inFrame struct {
	Type  string          `json:"type"`
	ReqID string          `json:"reqID"`
	Code  int             `json:"code"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

func send(t *testing.T, conn *websocket.Conn, frameType, reqID string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(&Frame{Type: frameType, ReqID: reqID, Data: raw}))
}

// readUntil 丢弃不匹配的帧
func readUntil(t *testing.T, conn *websocket.Conn, match func(f *inFrame) bool) *inFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f inFrame
		require.NoError(t, conn.ReadJSON(&f))
		if match(&f) {
			return &f
		}
	}
}

func ackOf(reqID string) func(f *inFrame) bool {
	return func(f *inFrame) bool { return f.Type == FrameAck && f.ReqID == reqID }
}

func ofType(frameType string) func(f *inFrame) bool {
	return func(f *inFrame) bool { return f.Type == frameType }
}

func TestRejectWithoutToken(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "", nil)
	f := readUntil(t, conn, ofType(FrameNotice))
	assert.Equal(t, servererrs.TokenMissingError, f.Code)
}

func TestRejectMismatchedUser(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "amara", url.Values{WsUserID: {"kofi"}})
	f := readUntil(t, conn, ofType(FrameNotice))
	assert.Equal(t, servererrs.ConnArgsError, f.Code)
}

func TestConversationFrames(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "amara", nil)

	send(t, conn, FrameOpenConversation, "1", &OpenConversationReq{PeerID: "kofi"})
	ack := readUntil(t, conn, ackOf("1"))
	require.Zero(t, ack.Code, ack.Msg)
	var opened OpenConversationResp
	require.NoError(t, json.Unmarshal(ack.Data, &opened))
	assert.Equal(t, chat.ConversationID("amara", "kofi"), opened.ConversationID)

	send(t, conn, FrameSendText, "2", &SendTextReq{PeerID: "kofi", Text: "hello"})
	ack = readUntil(t, conn, ackOf("2"))
	require.Zero(t, ack.Code, ack.Msg)

	update := readUntil(t, conn, func(f *inFrame) bool {
		if f.Type != FrameMessages {
			return false
		}
		var u chat.MessageUpdate
		require.NoError(t, json.Unmarshal(f.Data, &u))
		return len(u.Messages) == 1
	})
	var u chat.MessageUpdate
	require.NoError(t, json.Unmarshal(update.Data, &u))
	assert.Equal(t, "hello", u.Messages[0].Text)

	send(t, conn, FrameSendText, "3", &SendTextReq{PeerID: "amara", Text: "me"})
	ack = readUntil(t, conn, ackOf("3"))
	assert.NotZero(t, ack.Code)
	var notice chat.Notice
	require.NoError(t, json.Unmarshal(ack.Data, &notice))
	assert.Equal(t, chat.NoticeInfo, notice.Level)
	assert.Equal(t, chat.OpSendMessage, notice.Op)
}

func TestUnknownAndInvalidFrames(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "amara", nil)

	send(t, conn, "fly", "1", struct{}{})
	ack := readUntil(t, conn, ackOf("1"))
	assert.Equal(t, servererrs.UnknownFrameError, ack.Code)

	send(t, conn, FrameSendText, "2", map[string]string{"peerID": "kofi"})
	ack = readUntil(t, conn, ackOf("2"))
	assert.NotZero(t, ack.Code)

	send(t, conn, FrameTyping, "3", struct{}{})
	ack = readUntil(t, conn, ackOf("3"))
	assert.NotZero(t, ack.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f := readUntil(t, conn, ofType(FrameNotice))
	assert.Equal(t, servererrs.ConnArgsError, f.Code)

	send(t, conn, FramePing, "4", nil)
	readUntil(t, conn, func(f *inFrame) bool { return f.Type == FramePong && f.ReqID == "4" })
}

func TestFollowFrames(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "amara", nil)

	send(t, conn, FrameSubscribeFeedFollow, "1", nil)
	ack := readUntil(t, conn, ackOf("1"))
	require.Zero(t, ack.Code, ack.Msg)

	send(t, conn, FrameToggleFollow, "2", &ToggleFollowReq{TargetID: "sia"})
	ack = readUntil(t, conn, ackOf("2"))
	require.Zero(t, ack.Code, ack.Msg)
	var resp FollowResp
	require.NoError(t, json.Unmarshal(ack.Data, &resp))
	assert.Equal(t, []string{"sia"}, resp.Following)
	require.NotNil(t, resp.Followed)
	assert.True(t, *resp.Followed)
}

func TestConversationListFrames(t *testing.T) {
	g := newTestGateway(t)
	_, err := g.ws.chat.SendText(context.Background(), "kofi", "amara", "hi amara")
	require.NoError(t, err)

	conn := g.dial(t, "amara", nil)
	send(t, conn, FrameSubscribeConversations, "1", nil)
	f := readUntil(t, conn, ofType(FrameConversations))
	var views []*chat.ConversationView
	require.NoError(t, json.Unmarshal(f.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "kofi", views[0].Peer.UserID)
	assert.EqualValues(t, 1, views[0].Unread)
}

func TestPushSoundAndPresence(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "kofi", nil)

	require.Eventually(t, func() bool {
		_, ok := g.ws.GetUserAllCons("kofi")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	msg := &model.Message{ID: "m1", ConversationID: chat.ConversationID("amara", "kofi"), SenderID: "amara"}
	assert.Equal(t, 1, g.ws.PushSound(context.Background(), "kofi", msg))
	assert.Equal(t, 0, g.ws.PushSound(context.Background(), "sia", msg))

	f := readUntil(t, conn, ofType(FrameSound))
	var sound SoundResp
	require.NoError(t, json.Unmarshal(f.Data, &sound))
	assert.Equal(t, "m1", sound.MessageID)

	assert.Eventually(t, func() bool {
		p, err := g.db.User().Take(context.Background(), "kofi")
		return err == nil && p.Online
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		p, err := g.db.User().Take(context.Background(), "kofi")
		return err == nil && !p.Online
	}, 3*time.Second, 50*time.Millisecond)
}

func TestCompressedConn(t *testing.T) {
	g := newTestGateway(t)
	conn := g.dial(t, "amara", url.Values{Compression: {GzipCompressionProtocol}})

	raw, err := json.Marshal(&Frame{Type: FramePing, ReqID: "z"})
	require.NoError(t, err)
	data, err := g.ws.compressor.Compress(raw)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	mt, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)
	plain, err := g.ws.compressor.Decompress(payload)
	require.NoError(t, err)
	var f inFrame
	require.NoError(t, json.Unmarshal(plain, &f))
	assert.Equal(t, FramePong, f.Type)
}
