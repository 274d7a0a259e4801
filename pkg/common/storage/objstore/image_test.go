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
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/openimsdk/tools/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImageDownscales(t *testing.T) {
	out, err := PrepareImage(pngBytes(t, 2000, 100), 1280)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestPrepareImageKeepsSmall(t *testing.T) {
	out, err := PrepareImage(pngBytes(t, 300, 200), 1280)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestPrepareImageRejectsNonImage(t *testing.T) {
	_, err := PrepareImage([]byte("plain text, not an image"), 1280)
	assert.True(t, errs.ErrArgs.Is(errs.Unwrap(err)))
	_, err = PrepareImage(nil, 1280)
	assert.True(t, errs.ErrArgs.Is(errs.Unwrap(err)))
}

func TestMemoryUpload(t *testing.T) {
	m := NewMemory()
	url, err := m.Upload(context.Background(), "chat/a_b/1.jpg", ImageContentType, []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "memory://chat/a_b/1.jpg", url)
	obj, ok := m.Get("chat/a_b/1.jpg")
	assert.True(t, ok)
	assert.Equal(t, ImageContentType, obj.ContentType)
}
