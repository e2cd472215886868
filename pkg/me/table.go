// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package me

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders the model as human-readable text: the partition table,
// each code partition directory with its manifest and extensions, and
// the collected diagnostics.
func (m *StructuralModel) Table() string {
	var b strings.Builder

	t := table.NewWriter()
	t.SetTitle("Flash partition table @ %#x, version %d.%d",
		m.FPT.Base, m.FPT.Header.HeaderVersion>>4, m.FPT.Header.HeaderVersion&0xf)
	t.AppendHeader(table.Row{"Name", "Offset", "End", "Size", "Type", "Valid", "Notes"})
	for _, p := range sortedPartitions(m.Partitions) {
		e := p.Entry
		class, descr := PartInfo(p.Name())
		t.AppendRow(table.Row{
			p.Name(),
			fmt.Sprintf("0x%08x", e.Offset),
			fmt.Sprintf("0x%08x", e.Range().End()),
			humanize.IBytes(uint64(e.Length)),
			class,
			e.Valid(),
			descr,
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	for _, p := range m.Partitions {
		if p.Directory == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(directoryTable(p.Directory))
	}

	if len(m.Diagnostics) > 0 {
		b.WriteString("\nDiagnostics:\n")
		for _, d := range m.Diagnostics {
			fmt.Fprintf(&b, " - %s\n", d)
		}
	}

	return b.String()
}

func directoryTable(cpd *CodePartitionDirectory) string {
	var b strings.Builder

	t := table.NewWriter()
	t.SetTitle("%s @ %#x, %d entries", cpd.Name, cpd.Offset, cpd.Header.NumEntries)
	t.AppendHeader(table.Row{"Name", "Offset", "End", "Size", "Huffman"})
	for _, e := range sortedEntries(cpd.Entries) {
		t.AppendRow(table.Row{
			e.Name,
			fmt.Sprintf("0x%06x", e.Offset()),
			fmt.Sprintf("0x%06x", e.Range().End()),
			humanize.IBytes(uint64(e.Length)),
			e.Huffman(),
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	if man := cpd.Manifest; man != nil {
		fmt.Fprintf(&b, "Manifest @ %#x: %s\n", man.Offset, man.Header)
		for _, ext := range man.Extensions {
			fmt.Fprintf(&b, " - %s\n", ext)
		}
	}

	return b.String()
}

func sortedPartitions(partitions []*Partition) []*Partition {
	sorted := append([]*Partition{}, partitions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Entry.Offset < sorted[j].Entry.Offset
	})
	return sorted
}

func sortedEntries(entries []CPDEntry) []CPDEntry {
	sorted := append([]CPDEntry{}, entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset() < sorted[j].Offset()
	})
	return sorted
}
