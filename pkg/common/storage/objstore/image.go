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

package objstore

import (
	"bytes"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/openimsdk/tools/errs"
)

// ImageContentType 处理后的图片统一编码为JPEG
const ImageContentType = "image/jpeg"

// PrepareImage 校验并压缩上传的图片
// 按EXIF方向摆正，宽度超过maxWidth时等比缩小，最终编码为JPEG
func PrepareImage(data []byte, maxWidth int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errs.ErrArgs.WrapMsg("image is empty")
	}
	if ct := http.DetectContentType(data); ct != "image/jpeg" && ct != "image/png" && ct != "image/gif" {
		return nil, errs.ErrArgs.WrapMsg("unsupported image type", "contentType", ct)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.ErrArgs.WrapMsg("decode image failed", "err", err.Error())
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, errs.WrapMsg(err, "encode image failed")
	}
	return buf.Bytes(), nil
}
