// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"fmt"

	"github.com/linuxboot/mefs/pkg/bytes"
)

// ManifestSignature is the magic marker of a partition manifest,
// ie. "$MN2".
var ManifestSignature = []byte(`$MN2`)

const (
	// ManifestFixedHeaderLength is the size of the fixed manifest
	// header as laid out in ManifestHeader. The RSA block and the
	// extension region follow it.
	ManifestFixedHeaderLength = 0x80

	vendorIntel = 0x8086
)

// Version is the security-relevant version quad of a manifest.
type Version struct {
	Major  uint16
	Minor  uint16
	Hotfix uint16
	Build  uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Hotfix, v.Build)
}

// BCDDate is a manifest build date with BCD-encoded yyyymmdd digits.
type BCDDate uint32

func (d BCDDate) String() string {
	return fmt.Sprintf("%04x-%02x-%02x", uint32(d)>>16, (uint32(d)>>8)&0xff, uint32(d)&0xff)
}

// Vendor is a manifest vendor id.
type Vendor uint32

func (v Vendor) String() string {
	name := "unknown"
	if v == vendorIntel {
		name = "Intel"
	}
	return fmt.Sprintf("%s (%04x)", name, uint32(v))
}

// ManifestHeader is the fixed-layout header of a $MN2 manifest. Sizes
// declared in dwords cover the whole manifest including the trailing
// extension region.
type ManifestHeader struct {
	HeaderType    uint32
	HeaderLength  uint32 // in dwords, usually 0xa1, ie. 0x284 bytes
	HeaderVersion uint32
	Flags         uint32
	Vendor        Vendor
	Date          BCDDate
	Size          uint32 // in dwords
	Signature     Name4  // always $MN2
	NumModules    uint32
	Version       Version
	SVN           uint32
	Reserved      [18]uint32
	ModulusSize   uint32 // in dwords
	ExponentSize  uint32 // in dwords
}

func (h ManifestHeader) String() string {
	return fmt.Sprintf("vendor %s, version %s %s, %d modules, SVN %d",
		h.Vendor, h.Version, h.Date, h.NumModules, h.SVN)
}

// Manifest is a decoded partition manifest: the fixed header, the RSA
// block surfaced as opaque bytes (never verified here), and the decoded
// trailing extension records. Offset is absolute within the image.
type Manifest struct {
	Offset uint64
	Header ManifestHeader

	// RSA material, borrowed views, opaque payload bytes.
	PublicKey  []byte `json:",omitempty"`
	Exponent   []byte `json:",omitempty"`
	RSASig     []byte `json:",omitempty"`
	Extensions []Extension
	// Trailing holds extension-region bytes too short to form a
	// record header, preserved verbatim.
	Trailing []byte `json:",omitempty"`

	// ExtensionRegion is the byte range of the extension records,
	// relative to the manifest start.
	ExtensionRegion bytes.Range
}

// DecodeManifest decodes the manifest stored in "man", which is the
// byte range of the manifest directory entry. A failure affects this
// manifest only; the caller keeps the rest of the model. "base" is the
// manifest's position within the image.
func DecodeManifest(man []byte, base uint64, diags *Diagnostics) *Manifest {
	c := NewCursor(man)

	m := &Manifest{Offset: base}
	if err := c.ReadLE(0, &m.Header); err != nil {
		diags.append(LayerManifest, base, err)
		return nil
	}
	if string(m.Header.Signature[:]) != string(ManifestSignature) {
		diags.append(LayerManifest, base, &ErrMalformedManifest{
			Reason: fmt.Sprintf("signature %q is not %q", m.Header.Signature[:], ManifestSignature),
		})
		return nil
	}

	m.decodeRSABlock(c, base, diags)

	region, ok := m.extensionRegion(c.Len())
	if !ok {
		diags.append(LayerManifest, base, &ErrMalformedManifest{
			Reason: fmt.Sprintf("header length %#x dwords and size %#x dwords leave no consistent extension region within %#x bytes",
				m.Header.HeaderLength, m.Header.Size, c.Len()),
		})
		return m
	}
	m.ExtensionRegion = region
	if region.Length > 0 {
		// The slice is in bounds: extensionRegion validated it
		// against the cursor.
		m.Extensions, m.Trailing = DecodeExtensions(
			man[region.Offset:region.End()], base+region.Offset, diags)
	}

	return m
}

// decodeRSABlock surfaces the modulus, exponent and signature bytes
// directly after the fixed header. The sizes are self-described and a
// short buffer only costs the block, not the manifest.
func (m *Manifest) decodeRSABlock(c *Cursor, base uint64, diags *Diagnostics) {
	offset := uint64(ManifestFixedHeaderLength)
	for _, blob := range []struct {
		name   string
		length uint64
		out    *[]byte
	}{
		{"modulus", uint64(m.Header.ModulusSize) * 4, &m.PublicKey},
		{"exponent", uint64(m.Header.ExponentSize) * 4, &m.Exponent},
		{"signature", uint64(m.Header.ModulusSize) * 4, &m.RSASig},
	} {
		b, err := c.Bytes(offset, blob.length)
		if err != nil {
			diags.append(LayerManifest, base+offset, err)
			return
		}
		*blob.out = b
		offset += blob.length
	}
}

// extensionRegion computes where the extension records live: the header
// length (in dwords) gives the start, the total size (in dwords) the
// end, both clamped to the manifest entry's own bytes. A negative or
// inconsistent result reports !ok and the region is treated as empty.
func (m *Manifest) extensionRegion(limit uint64) (bytes.Range, bool) {
	start := uint64(m.Header.HeaderLength) * 4
	total := uint64(m.Header.Size) * 4
	if start < ManifestFixedHeaderLength || total < start || start > limit {
		return bytes.Range{}, false
	}
	length := total - start
	if start+length > limit {
		length = limit - start
	}
	return bytes.Range{Offset: start, Length: length}, true
}
