// Command console is the terminal front-end for the content console API.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/console-conteudo/backend/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			root.PrintErrln(errorStyle.Render("Error: " + err.Error()))
		}
		stop()
		os.Exit(1)
	}
}
