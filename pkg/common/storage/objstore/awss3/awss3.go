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

// Package awss3 基于S3（或兼容S3的MinIO）的对象存储
package awss3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/openimsdk/tools/errs"
	"github.com/saloneskills/connect/pkg/common/config"
)

type S3 struct {
	conf     config.Aws
	uploader *manager.Uploader
}

func New(ctx context.Context, conf config.Aws) (*S3, error) {
	if conf.Bucket == "" {
		return nil, errs.ErrArgs.WrapMsg("aws bucket is empty")
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(conf.Region)}
	if conf.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, conf.SessionToken)))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.WrapMsg(err, "load aws config failed")
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{conf: conf, uploader: manager.NewUploader(client)}, nil
}

func (s *S3) Engine() string {
	return "aws"
}

func (s *S3) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.conf.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errs.WrapMsg(err, "s3 upload failed", "bucket", s.conf.Bucket, "key", key)
	}
	if s.conf.PublicURL != "" {
		return PublicURL(s.conf.PublicURL, key), nil
	}
	return out.Location, nil
}

// PublicURL CDN或自定义域名下的访问地址
func PublicURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), strings.Join(parts, "/"))
}
