package main

import (
	"context"
	"fmt"
	"os"

	"github.com/galaplate/dbdeploy/console"
)

func main() {
	if err := console.NewKernel().Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
