// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"encoding/binary"
	"fmt"
)

// ExtensionHeaderLength is the minimal size of an extension record:
// a type tag and a declared total length, both dwords.
const ExtensionHeaderLength = 8

// ExtensionType is the type tag of a manifest extension record. The
// type space is open-ended and only partially documented; unlisted tags
// are expected and decode into UnknownExtension.
type ExtensionType uint32

const (
	ExtTypeSystemInfo          = ExtensionType(0x00)
	ExtTypeInitScript          = ExtensionType(0x01)
	ExtTypeFeaturePermissions  = ExtensionType(0x02)
	ExtTypePartitionInfo       = ExtensionType(0x03)
	ExtTypeSharedLibAttr       = ExtensionType(0x04)
	ExtTypeProcessAttr         = ExtensionType(0x05)
	ExtTypeThreads             = ExtensionType(0x06)
	ExtTypeDeviceIDs           = ExtensionType(0x07)
	ExtTypeMMIORanges          = ExtensionType(0x08)
	ExtTypeSpecialFileProducer = ExtensionType(0x09)
	ExtTypeModuleAttr          = ExtensionType(0x0A)
	ExtTypeLockedRanges        = ExtensionType(0x0B)
	ExtTypeClientSystemInfo    = ExtensionType(0x0C)
	ExtTypeUserInfo            = ExtensionType(0x0D)
	ExtTypeSignedPackageInfo   = ExtensionType(0x0F)
)

func (t ExtensionType) String() string {
	switch t {
	case ExtTypeSystemInfo:
		return "system_info"
	case ExtTypeInitScript:
		return "init_script"
	case ExtTypeFeaturePermissions:
		return "feature_permissions"
	case ExtTypePartitionInfo:
		return "partition_info"
	case ExtTypeSharedLibAttr:
		return "shared_lib_attr"
	case ExtTypeProcessAttr:
		return "process_attr"
	case ExtTypeThreads:
		return "threads"
	case ExtTypeDeviceIDs:
		return "device_ids"
	case ExtTypeMMIORanges:
		return "mmio_ranges"
	case ExtTypeSpecialFileProducer:
		return "special_file_producer"
	case ExtTypeModuleAttr:
		return "module_attr"
	case ExtTypeLockedRanges:
		return "locked_ranges"
	case ExtTypeClientSystemInfo:
		return "client_system_info"
	case ExtTypeUserInfo:
		return "user_info"
	case ExtTypeSignedPackageInfo:
		return "signed_package_info"
	}
	return "unknown"
}

// ExtensionRecord is the decoded framing common to every extension
// record: where it sits in the image, its type tag, the declared total
// length (header included) and the verbatim payload.
type ExtensionRecord struct {
	Offset uint64
	TypeID ExtensionType
	Length uint32
	Data   []byte `json:",omitempty"`
}

// Type returns the record's type tag.
func (r *ExtensionRecord) Type() ExtensionType {
	return r.TypeID
}

// Record returns the record framing itself.
func (r *ExtensionRecord) Record() *ExtensionRecord {
	return r
}

// Payload returns the verbatim payload bytes (declared length minus the
// record header).
func (r *ExtensionRecord) Payload() []byte {
	return r.Data
}

// Extension is one decoded extension record. Concrete implementations
// carry the interpreted fields for tags the decoder table knows;
// UnknownExtension carries every other tag.
type Extension interface {
	fmt.Stringer

	// Type returns the record's type tag.
	Type() ExtensionType

	// Record returns the record framing: offset, tag, declared
	// length and verbatim payload.
	Record() *ExtensionRecord
}

// ExtensionReader decodes one known extension type.
type ExtensionReader struct {
	Type ExtensionType
	Name string
	New  func(ExtensionRecord) (Extension, error)
}

var extensionReaders = map[ExtensionType]*ExtensionReader{}

// RegisterExtensionReader adds a reader to the decoder table. New known
// types extend the table without touching the decode loop's framing.
func RegisterExtensionReader(r *ExtensionReader) error {
	if d, ok := extensionReaders[r.Type]; ok {
		return fmt.Errorf("extension type %#x already registered to %q", uint32(r.Type), d.Name)
	}
	extensionReaders[r.Type] = r
	return nil
}

// UnknownExtension preserves an unrecognized record verbatim. An
// unrecognized tag is a recognized, expected outcome given an evolving
// format, not an error.
type UnknownExtension struct {
	ExtensionRecord
}

func NewUnknownExtension(r ExtensionRecord) (Extension, error) {
	return &UnknownExtension{ExtensionRecord: r}, nil
}

func (e *UnknownExtension) String() string {
	return fmt.Sprintf("extension type %#x (unknown), %d byte payload", uint32(e.TypeID), len(e.Data))
}

// DecodeExtensions decodes the type-tagged record sequence in "region".
// After each record the position advances by exactly the record's
// declared length, never by a reader's interpreted size, so readers
// cannot desynchronize the stream. A record whose declared length
// cannot fit the remaining region abandons the remainder, reported and
// preserved raw. Leftover bytes below the minimal header size are
// reported as trailing and preserved raw. "base" is the region's
// position within the image.
func DecodeExtensions(region []byte, base uint64, diags *Diagnostics) ([]Extension, []byte) {
	var exts []Extension

	pos := uint64(0)
	end := uint64(len(region))
	for end-pos >= ExtensionHeaderLength {
		tag := ExtensionType(binary.LittleEndian.Uint32(region[pos:]))
		length := uint64(binary.LittleEndian.Uint32(region[pos+4:]))
		if length < ExtensionHeaderLength || length > end-pos {
			diags.append(LayerExtension, base+pos, &ErrMalformedHeader{
				Structure: "extension record",
				Reason: fmt.Sprintf("type %#x declares length %#x, remaining region is %#x",
					uint32(tag), length, end-pos),
			})
			return exts, region[pos:end]
		}

		rec := ExtensionRecord{
			Offset: base + pos,
			TypeID: tag,
			Length: uint32(length),
			Data:   region[pos+ExtensionHeaderLength : pos+length],
		}
		exts = append(exts, decodeExtension(rec, diags))
		pos += length
	}

	if pos < end {
		diags.append(LayerExtension, base+pos, &ErrTrailingBytes{Count: end - pos})
		return exts, region[pos:end]
	}
	return exts, nil
}

// decodeExtension dispatches one framed record to the reader table. A
// known reader failing on its payload is diagnosed and the record falls
// back to UnknownExtension so its bytes stay visible.
func decodeExtension(rec ExtensionRecord, diags *Diagnostics) Extension {
	reader, ok := extensionReaders[rec.TypeID]
	if !ok {
		ext, _ := NewUnknownExtension(rec)
		return ext
	}
	ext, err := reader.New(rec)
	if err != nil {
		diags.append(LayerExtension, rec.Offset, err)
		ext, _ = NewUnknownExtension(rec)
	}
	return ext
}
