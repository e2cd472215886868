// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

// PartitionClass tells whether a named partition is known to hold code
// or data. Unknown names get ClassUnknown, they are not an error.
type PartitionClass int

const (
	ClassUnknown PartitionClass = iota
	ClassCode
	ClassData
)

func (c PartitionClass) String() string {
	switch c {
	case ClassCode:
		return "code"
	case ClassData:
		return "data"
	}
	return "unknown"
}

// partInfo maps well-known partition names to their class and a short
// description. Collected from TR17 "Intel ME: The Way of the Static
// Analysis" and public ME unpacking tools.
var partInfo = map[string]struct {
	Class PartitionClass
	Descr string
}{
	"FTPR": {ClassCode, "Main code partition"},
	"FTUP": {ClassCode, "[NFTP]+[WCOD]+[LOCL]"},
	"DLMP": {ClassCode, "IDLM partition"},
	"NFTP": {ClassCode, "Additional code"},
	"ROMB": {ClassCode, "ROM Bypass"},
	"WCOD": {ClassCode, "WLAN uCode"},
	"LOCL": {ClassCode, "AMT Localization"},
	"ISHC": {ClassCode, "Integrated Sensors Hub"},
	"FTPM": {ClassCode, "Firmware TPM (unconfirmed)"},
	"PSVN": {ClassData, "Secure Version Number"},
	"IVBP": {ClassData, "IV + Bring Up cache"},
	"MFS":  {ClassData, "ME Flash File System"},
	"FLOG": {ClassData, "Flash Log"},
	"UTOK": {ClassData, "Debug Unlock Token"},
	"GLUT": {ClassData, "Huffman Look-Up Table"},
	"EFFS": {ClassData, "EFFS File System"},
	"FOVD": {ClassData, "FOVD"},
	"AFSP": {ClassUnknown, "8778 55aa signature like MFS"},
}

// PartInfo returns the class and description of a well-known partition
// name.
func PartInfo(name string) (PartitionClass, string) {
	if info, ok := partInfo[name]; ok {
		return info.Class, info.Descr
	}
	return ClassUnknown, ""
}
