package main

import (
	"context"
	"olx-scraper/cmd"
)

func main() {
	cmd.ExecuteContext(context.Background())
}
