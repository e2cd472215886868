// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package show

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/linuxboot/mefs/cmds/mefs/commands"
	"github.com/linuxboot/mefs/pkg/log"
	"github.com/linuxboot/mefs/pkg/me"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	ImagePath string  `short:"f" long:"file" description:"path to (CS)ME firmware image" required:"true"`
	Print     bool    `short:"p" long:"print" description:"render the parsed structure to stdout"`
	Format    *string `long:"format" description:"output format [text, json]"`
}

type Format int

const (
	FormatUndefined = Format(iota)
	FormatText
	FormatJSON
)

func ParseFormat(s string) Format {
	switch strings.Trim(strings.ToLower(s), " ") {
	case "text":
		return FormatText
	case "json":
		return FormatJSON
	}
	return FormatUndefined
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "parses a (CS)ME firmware image and prints its structure"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	format := FormatText
	if cmd.Format != nil {
		format = ParseFormat(*cmd.Format)
		if format == FormatUndefined {
			return commands.ErrArgs{Err: fmt.Errorf("unknown format '%s'", *cmd.Format)}
		}
	}

	data, err := os.ReadFile(cmd.ImagePath)
	if err != nil {
		return fmt.Errorf("unable to read the firmware image file '%s': %w", cmd.ImagePath, err)
	}

	// The parse fails only when no $FPT signature exists; all other
	// deviations are diagnostics inside the model and still exit 0.
	model, err := me.Parse(data)
	if err != nil {
		return fmt.Errorf("unable to parse '%s': %w", cmd.ImagePath, err)
	}

	if len(model.Diagnostics) > 0 {
		log.Warnf("%d diagnostics collected while parsing '%s'", len(model.Diagnostics), cmd.ImagePath)
	}

	if !cmd.Print && cmd.Format == nil {
		return nil
	}

	switch format {
	case FormatText:
		fmt.Printf("%s", model.Table())
	case FormatJSON:
		b, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to marshal the model: %w", err)
		}
		fmt.Printf("%s\n", b)
	}

	return nil
}
