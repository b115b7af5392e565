// Command receiptcheck inspects an App Store receipt: it validates a raw
// receipt or loads a saved validation response, then reports purchase and
// subscription verdicts for the given products.
package main

import (
	"context"
	"fmt"
	"os"

	"iapkit/pkg/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil || cfg == nil {
		return err
	}
	logging.InitLogging(cfg.DebugLevel)

	if cfg.Response != "" || cfg.Receipt != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout*2)
		defer cancel()

		info, err := loadInfo(ctx, cfg)
		if err != nil {
			return err
		}
		report(os.Stdout, cfg, info)
	}

	if cfg.Simulate {
		return simulate(os.Stdout, cfg.Products, cfg.Timeout)
	}
	return nil
}
