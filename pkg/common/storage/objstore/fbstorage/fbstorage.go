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

// Package fbstorage 基于Firebase Storage（GCS）的对象存储
package fbstorage

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
)

// downloadTokenKey Firebase控制台与客户端SDK生成下载地址时读取的元数据
const downloadTokenKey = "firebaseStorageDownloadTokens"

type Storage struct {
	bucketName string
	bucket     *storage.BucketHandle
}

// New bucketName为空时使用应用配置中的默认存储桶
func New(ctx context.Context, app *firebase.App, bucketName string) (*Storage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, errs.WrapMsg(err, "init firebase storage failed")
	}
	var bucket *storage.BucketHandle
	if bucketName == "" {
		bucket, err = client.DefaultBucket()
	} else {
		bucket, err = client.Bucket(bucketName)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "open bucket failed", "bucket", bucketName)
	}
	return &Storage{bucketName: bucket.BucketName(), bucket: bucket}, nil
}

func (s *Storage) Engine() string {
	return "firebase"
}

func (s *Storage) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	token := uuid.NewString()
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: token}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errs.WrapMsg(err, "write object failed", "key", key)
	}
	if err := w.Close(); err != nil {
		return "", errs.WrapMsg(err, "close object writer failed", "key", key)
	}
	log.ZDebug(ctx, "object uploaded", "bucket", s.bucketName, "key", key, "size", len(data))
	return DownloadURL(s.bucketName, key, token), nil
}

// DownloadURL 带下载令牌的公开访问地址，对象路径整体转义（包括/）
func DownloadURL(bucket, key, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s", bucket, url.QueryEscape(key), token)
}
