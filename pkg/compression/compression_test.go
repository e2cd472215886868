// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData() []byte {
	// Repetitive enough to compress, varied enough to exercise the
	// codecs.
	var b bytes.Buffer
	for i := 0; i < 64; i++ {
		b.WriteString("module payload bytes ")
		b.WriteByte(byte(i))
	}
	return b.Bytes()
}

func TestRoundTrip(t *testing.T) {
	want := testData()
	for _, typ := range []Type{TypeLZMA, TypeLZ4, TypeZlib} {
		t.Run(typ.String(), func(t *testing.T) {
			c := CompressorFor(typ)
			require.NotNil(t, c)

			encoded, err := c.Encode(want)
			require.NoError(t, err)
			got, err := c.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestCompressorForUnavailable(t *testing.T) {
	assert.Nil(t, CompressorFor(TypeNone))
	assert.Nil(t, CompressorFor(TypeHuffman))
	assert.Nil(t, CompressorFor(Type(42)))
}

func TestDecodeGarbage(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef}
	for _, typ := range []Type{TypeLZMA, TypeZlib} {
		t.Run(typ.String(), func(t *testing.T) {
			_, err := CompressorFor(typ).Decode(garbage)
			assert.Error(t, err)
		})
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "none", TypeNone.String())
	assert.Equal(t, "huffman", TypeHuffman.String())
	assert.Equal(t, "lzma", TypeLZMA.String())
	assert.Equal(t, "unknown", Type(42).String())
}

func TestErrUnsupported(t *testing.T) {
	err := &ErrUnsupported{Type: TypeHuffman}
	assert.Contains(t, err.Error(), "huffman")
}
