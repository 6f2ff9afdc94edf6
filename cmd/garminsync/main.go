package main

import (
	_ "github.com/mattn/go-sqlite3"

	"github.com/yourusername/garminsync/internal/cli"
)

func main() {
	cli.Execute()
}
