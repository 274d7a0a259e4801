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

// Package servererrs 项目自定义错误码
// 通用错误（参数、权限、记录不存在）直接使用tools/errs中的预定义错误
package servererrs

import (
	"github.com/openimsdk/tools/errs"
)

// 业务错误码，从10001开始避免与tools/errs的通用错误码冲突
const (
	DuplicateKeyError   = 10001
	NotParticipantError = 10002
	TokenInvalidError   = 10101
	TokenMissingError   = 10102
	RateLimitError      = 10201
	UploadError         = 10301

	ConnOverMaxNumLimit = 10401
	ConnArgsError       = 10402
	UnknownFrameError   = 10403
)

var (
	ErrDuplicateKey   = errs.NewCodeError(DuplicateKeyError, "DuplicateKeyError")
	ErrNotParticipant = errs.NewCodeError(NotParticipantError, "NotParticipantError")
	ErrTokenInvalid   = errs.NewCodeError(TokenInvalidError, "TokenInvalidError")
	ErrTokenMissing   = errs.NewCodeError(TokenMissingError, "TokenMissingError")
	ErrRateLimit      = errs.NewCodeError(RateLimitError, "RateLimitError")
	ErrUpload         = errs.NewCodeError(UploadError, "UploadError")

	ErrConnOverMaxNumLimit = errs.NewCodeError(ConnOverMaxNumLimit, "ConnOverMaxNumLimit")
	ErrConnArgs            = errs.NewCodeError(ConnArgsError, "ConnArgsError")
	ErrUnknownFrame        = errs.NewCodeError(UnknownFrameError, "UnknownFrameError")
)
