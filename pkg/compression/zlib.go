// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

const zlibCompressionLevel = 9

// Zlib implements Compressor for plain zlib streams.
type Zlib struct{}

// Name returns the type of compression employed.
func (c *Zlib) Name() string {
	return "Zlib"
}

// Decode decodes a byte slice of zlib data.
func (c *Zlib) Decode(encodedData []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewBuffer(encodedData))
	if err != nil {
		return nil, err
	}
	decodedData, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, err
	}
	return decodedData, nil
}

// Encode encodes a byte slice with zlib.
func (c *Zlib) Encode(decodedData []byte) ([]byte, error) {
	var encodedData bytes.Buffer
	w, err := zlib.NewWriterLevel(&encodedData, zlibCompressionLevel)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(decodedData)
	w.Close()
	if err != nil {
		return nil, err
	}
	return encodedData.Bytes(), nil
}
