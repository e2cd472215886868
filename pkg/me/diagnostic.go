// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Layer identifies the decoder a diagnostic originated from.
type Layer string

const (
	LayerFPT       = Layer("fpt")
	LayerPartition = Layer("partition")
	LayerCPD       = Layer("cpd")
	LayerManifest  = Layer("manifest")
	LayerExtension = Layer("extension")
)

// Diagnostic records a non-fatal deviation from the expected structure:
// which layer saw it, the absolute image offset it occurred at, and the
// underlying error.
type Diagnostic struct {
	Layer  Layer
	Offset uint64
	Err    error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] at %#x: %v", d.Layer, d.Offset, d.Err)
}

// MarshalJSON renders the wrapped error as its message.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Layer  Layer
		Offset uint64
		Error  string
	}{d.Layer, d.Offset, d.Err.Error()})
}

// Diagnostics is the append-only list of deviations collected while
// decoding one image, in stable decode order.
type Diagnostics []Diagnostic

func (ds *Diagnostics) append(layer Layer, offset uint64, err error) {
	*ds = append(*ds, Diagnostic{Layer: layer, Offset: offset, Err: err})
}

// ErrorOrNil rolls all diagnostics up into a single error, or nil when
// the decode was clean.
func (ds Diagnostics) ErrorOrNil() error {
	var result *multierror.Error
	for _, d := range ds {
		result = multierror.Append(result, fmt.Errorf("[%s] at %#x: %w", d.Layer, d.Offset, d.Err))
	}
	return result.ErrorOrNil()
}
