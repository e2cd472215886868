// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mefs inspects Intel (CS)ME firmware images: the flash partition
// table, per-partition code partition directories, manifests and their
// extension records.
//
// Synopsis:
//     mefs show -f IMAGE [--print] [--format text|json]
//
// An example:
//     mefs show -f csme.bin --print
//     mefs show -f csme.bin --format=json | jq '.Partitions[].Entry.Name'
//
// Description:
//     show: Parse an image and optionally print its structural model.
//           Exits 0 on a successful structural decode, diagnostics
//           included; exits non-zero when no $FPT signature exists.
package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/mefs/cmds/mefs/commands"
	"github.com/linuxboot/mefs/cmds/mefs/commands/show"
)

var (
	knownCommands = map[string]commands.Command{
		"show": &show.Command{},
	}
)

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	// parse arguments and execute the appropriate command
	if _, err := flagsParser.Parse(); err != nil {
		log.Fatal(err)
	}
}
