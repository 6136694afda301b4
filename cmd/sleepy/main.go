// Command sleepy talks to a Sleepy.Mongoose REST gateway.
//
//	sleepy hello
//	sleepy find mydb people --criteria '{"age": 30}' --limit 5
//	sleepy insert mydb people --docs '[{"name": "ann"}]'
//	sleepy cmd mydb '{"count": "people"}'
//	sleepy run script.js
//
// Settings are read from sleepy.yml (or config.yml), .env and SLEEPY_*
// environment variables, e.g. SLEEPY_CLIENT_SERVER=db1:27017. Flags win.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
