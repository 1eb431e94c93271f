package main

import (
	"os"

	"github.com/mediawatch/newscrawler/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
