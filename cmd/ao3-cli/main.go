package main

import (
	"context"

	"ao3scraper/cmd/ao3-cli/commands"
	"ao3scraper/internal/components/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
