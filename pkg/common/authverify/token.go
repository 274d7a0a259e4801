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

// Package authverify 校验客户端携带的JWT，令牌由外部身份服务签发
package authverify

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/servererrs"
)

const bearerPrefix = "Bearer "

// Claims 令牌声明，Subject即用户ID
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier HS256令牌校验器
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier issuer为空时不校验签发方
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// ParseToken 解析令牌并返回用户ID
func (v *Verifier) ParseToken(token string) (string, error) {
	if token == "" {
		return "", servererrs.ErrTokenMissing.WrapMsg("token is empty")
	}
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", servererrs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	now := v.now()
	if !claims.VerifyExpiresAt(now, false) {
		return "", servererrs.ErrTokenInvalid.WrapMsg("token expired")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", servererrs.ErrTokenInvalid.WrapMsg("unexpected issuer", "issuer", claims.Issuer)
	}
	if claims.Subject == "" {
		return "", servererrs.ErrTokenInvalid.WrapMsg("token has no subject")
	}
	return claims.Subject, nil
}

// ParseHeader 解析"Bearer <token>"形式的Authorization头
func (v *Verifier) ParseHeader(header string) (string, error) {
	if header == "" {
		return "", servererrs.ErrTokenMissing.WrapMsg("authorization header is empty")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", servererrs.ErrTokenInvalid.WrapMsg("authorization header is not a bearer token")
	}
	return v.ParseToken(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
}

// BuildToken 签发令牌，供测试和本地调试使用
func BuildToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errs.WrapMsg(err, "token.SignedString")
	}
	return s, nil
}
