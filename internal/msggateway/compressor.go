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
	"bytes"
	"compress/gzip"
	"io"
	"sync"

	"github.com/openimsdk/tools/errs"
)

// Compressor 握手时带compression=gzip的连接，双向帧都经过压缩
type Compressor interface {
	Compress(rawData []byte) ([]byte, error)
	Decompress(compressedData []byte) ([]byte, error)
}

// GzipCompressor 复用gzip读写器
type GzipCompressor struct {
	writers sync.Pool
	readers sync.Pool
}

// NewGzipCompressor level非法时使用gzip.DefaultCompression
func NewGzipCompressor(level int) *GzipCompressor {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	g := &GzipCompressor{}
	g.writers.New = func() any {
		w, _ := gzip.NewWriterLevel(nil, level)
		return w
	}
	g.readers.New = func() any { return new(gzip.Reader) }
	return g
}

func (g *GzipCompressor) Compress(rawData []byte) ([]byte, error) {
	gz := g.writers.Get().(*gzip.Writer)
	defer g.writers.Put(gz)
	var buf bytes.Buffer
	gz.Reset(&buf)
	if _, err := gz.Write(rawData); err != nil {
		return nil, errs.WrapMsg(err, "GzipCompressor.Compress: error writing data")
	}
	if err := gz.Close(); err != nil {
		return nil, errs.WrapMsg(err, "GzipCompressor.Compress: error closing gzip writer")
	}
	return buf.Bytes(), nil
}

func (g *GzipCompressor) Decompress(compressedData []byte) ([]byte, error) {
	reader := g.readers.Get().(*gzip.Reader)
	defer g.readers.Put(reader)
	if err := reader.Reset(bytes.NewReader(compressedData)); err != nil {
		return nil, errs.WrapMsg(err, "GzipCompressor.Decompress: resetting gzip reader failed")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errs.WrapMsg(err, "GzipCompressor.Decompress: reading from gzip reader failed")
	}
	if err = reader.Close(); err != nil {
		return data, errs.WrapMsg(err, "GzipCompressor.Decompress: closing gzip reader failed")
	}
	return data, nil
}
