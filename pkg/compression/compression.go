// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements the codecs used for ME module content.
// The structural parser never decompresses anything; callers resolve a
// Compressor through this package only when they ask for content.
package compression

import (
	"fmt"
)

// Type classifies how module bytes are stored.
type Type int

const (
	TypeNone Type = iota
	TypeHuffman
	TypeLZMA
	TypeLZ4
	TypeZlib
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeHuffman:
		return "huffman"
	case TypeLZMA:
		return "lzma"
	case TypeLZ4:
		return "lz4"
	case TypeZlib:
		return "zlib"
	}
	return "unknown"
}

// Compressor defines a single compression scheme (such as LZMA).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// ErrUnsupported means no codec exists for the requested type. ME
// Huffman uses chipset-specific dictionaries and has no public codec.
type ErrUnsupported struct {
	Type Type
}

func (err *ErrUnsupported) Error() string {
	return fmt.Sprintf("no codec for %s compression", err.Type)
}

// CompressorFor returns the Compressor for a storage type, or nil when
// there is none (plain storage, Huffman, unknown types).
func CompressorFor(t Type) Compressor {
	switch t {
	case TypeLZMA:
		return &LZMA{}
	case TypeLZ4:
		return &LZ4{}
	case TypeZlib:
		return &Zlib{}
	}
	return nil
}
