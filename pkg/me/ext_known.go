// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
)

// The typed readers below interpret only the payload prefix that is
// firmly established across CSE revisions and keep the remainder as raw
// bytes. Partially-understood is the normal state of this format.

func init() {
	for _, r := range []*ExtensionReader{
		{Type: ExtTypePartitionInfo, Name: "PartitionInfo", New: NewPartitionInfoExtension},
		{Type: ExtTypeModuleAttr, Name: "ModuleAttr", New: NewModuleAttrExtension},
		{Type: ExtTypeSignedPackageInfo, Name: "SignedPackageInfo", New: NewSignedPackageInfoExtension},
	} {
		if err := RegisterExtensionReader(r); err != nil {
			log.Fatal(err)
		}
	}
}

// readExtensionPrefix decodes the established fixed prefix of a payload
// and returns the remaining raw bytes.
func readExtensionPrefix(rec ExtensionRecord, v interface{}) ([]byte, error) {
	size := binary.Size(v)
	if size < 0 || len(rec.Data) < size {
		return nil, &ErrMalformedHeader{
			Structure: "extension record",
			Reason: fmt.Sprintf("type %#x payload of %#x bytes is shorter than its %#x byte layout",
				uint32(rec.TypeID), len(rec.Data), size),
		}
	}
	if err := binary.Read(bytes.NewReader(rec.Data), binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return rec.Data[size:], nil
}

// PartitionInfoExtension describes the partition a manifest covers:
// its name, declared length, hash and version control number.
type PartitionInfoExtension struct {
	ExtensionRecord
	PartitionName   Name4
	PartitionLength uint32
	Hash            [32]byte
	VCN             uint32
	Rest            []byte `json:",omitempty"`
}

func NewPartitionInfoExtension(rec ExtensionRecord) (Extension, error) {
	e := &PartitionInfoExtension{ExtensionRecord: rec}
	var prefix struct {
		PartitionName   Name4
		PartitionLength uint32
		Hash            [32]byte
		VCN             uint32
	}
	rest, err := readExtensionPrefix(rec, &prefix)
	if err != nil {
		return nil, err
	}
	e.PartitionName = prefix.PartitionName
	e.PartitionLength = prefix.PartitionLength
	e.Hash = prefix.Hash
	e.VCN = prefix.VCN
	e.Rest = rest
	return e, nil
}

func (e *PartitionInfoExtension) String() string {
	return fmt.Sprintf("partition_info: %s length %#x VCN %d", e.PartitionName, e.PartitionLength, e.VCN)
}

// ModuleAttrExtension carries a module's compression and size
// attributes, including whether its stored bytes are pre-compressed.
type ModuleAttrExtension struct {
	ExtensionRecord
	Compression      uint8 // 0 none, 1 Huffman, 2 LZMA
	Encrypted        uint8
	Reserved         [2]uint8
	UncompressedSize uint32
	CompressedSize   uint32
	Hash             [32]byte
	Rest             []byte `json:",omitempty"`
}

func NewModuleAttrExtension(rec ExtensionRecord) (Extension, error) {
	e := &ModuleAttrExtension{ExtensionRecord: rec}
	var prefix struct {
		Compression      uint8
		Encrypted        uint8
		Reserved         [2]uint8
		UncompressedSize uint32
		CompressedSize   uint32
		Hash             [32]byte
	}
	rest, err := readExtensionPrefix(rec, &prefix)
	if err != nil {
		return nil, err
	}
	e.Compression = prefix.Compression
	e.Encrypted = prefix.Encrypted
	e.Reserved = prefix.Reserved
	e.UncompressedSize = prefix.UncompressedSize
	e.CompressedSize = prefix.CompressedSize
	e.Hash = prefix.Hash
	e.Rest = rest
	return e, nil
}

func (e *ModuleAttrExtension) String() string {
	comp := [...]string{"uncompressed", "huffman", "lzma"}
	c := "unknown"
	if int(e.Compression) < len(comp) {
		c = comp[e.Compression]
	}
	return fmt.Sprintf("module_attr: %s %#x -> %#x bytes", c, e.CompressedSize, e.UncompressedSize)
}

// SignedPackageInfoExtension summarizes the signed package: partition
// name, version control number, usage bitmap and security version.
type SignedPackageInfoExtension struct {
	ExtensionRecord
	PartitionName Name4
	VCN           uint32
	UsageBitmap   [16]byte
	SVN           uint32
	Rest          []byte `json:",omitempty"`
}

func NewSignedPackageInfoExtension(rec ExtensionRecord) (Extension, error) {
	e := &SignedPackageInfoExtension{ExtensionRecord: rec}
	var prefix struct {
		PartitionName Name4
		VCN           uint32
		UsageBitmap   [16]byte
		SVN           uint32
	}
	rest, err := readExtensionPrefix(rec, &prefix)
	if err != nil {
		return nil, err
	}
	e.PartitionName = prefix.PartitionName
	e.VCN = prefix.VCN
	e.UsageBitmap = prefix.UsageBitmap
	e.SVN = prefix.SVN
	e.Rest = rest
	return e, nil
}

func (e *SignedPackageInfoExtension) String() string {
	return fmt.Sprintf("signed_package_info: %s VCN %d SVN %d", e.PartitionName, e.VCN, e.SVN)
}
