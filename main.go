package main

import (
	"github.com/toncell-lab/emubridge/command/root"
)

func main() {
	root.NewRootCommand().Execute()
}
