package main

import (
	"context"
	"os"

	"github.com/xiaot623/gogo/ecosystem/internal/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
