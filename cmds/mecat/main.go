// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mecat dumps the structure of a (CS)ME firmware image.
//
// Synopsis:
//     mecat [-d] IMAGE (list|json)
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/linuxboot/mefs/pkg/me"
	flag "github.com/spf13/pflag"
)

var debug = flag.BoolP("debug", "d", false, "print every diagnostic")

func main() {
	flag.Parse()

	a := flag.Args()
	if len(a) != 2 {
		log.Fatal("arg count")
	}

	data, err := os.ReadFile(a[0])
	if err != nil {
		log.Fatal(err)
	}
	model, err := me.Parse(data)
	if err != nil {
		log.Fatal(err)
	}

	if *debug {
		for _, d := range model.Diagnostics {
			log.Printf("%s", d)
		}
	}

	switch a[1] {
	case "list":
		fmt.Printf("%s", model.Table())
	case "json":
		j, err := json.MarshalIndent(model, "  ", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s", string(j))
	default:
		log.Fatal("?")
	}
}
