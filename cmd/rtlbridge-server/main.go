// rtlbridge-server serves the transpiler over JSON-RPC 2.0, on stdio
// by default or on a websocket listener with -listen.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hdltools/rtlbridge/internal/config"
	"github.com/hdltools/rtlbridge/internal/server"
)

func main() {
	listen := flag.String("listen", "", "websocket listen address (default: serve stdio)")
	configPath := flag.String("c", "", "config file path")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *listen != "" {
		fmt.Fprintf(os.Stderr, "listening on ws://%s/rpc\n", *listen)
		if err := srv.ListenAndServe(*listen); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
