package main

import (
	"context"
	"os"

	"github.com/deidaraiorek/snowstem/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
