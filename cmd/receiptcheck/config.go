package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"

	"iapkit/pkg/receipt"
)

const (
	subscriptionAuto        = "auto"
	subscriptionNonRenewing = "nonrenewing"
)

type config struct {
	Response string        `short:"r" long:"response" description:"Path to a saved verifyReceipt JSON response"`
	Receipt  string        `short:"f" long:"receipt" description:"Path to a raw receipt file to validate with the App Store"`
	Secret   string        `long:"secret" default-mask:"-" description:"App shared secret used for validation"`
	Sandbox  bool          `long:"sandbox" description:"Validate against the sandbox endpoint"`
	Timeout  time.Duration `long:"timeout" default:"30s" description:"Validation timeout"`

	Products     []string      `short:"p" long:"product" description:"Product identifier to check (may be repeated)"`
	Subscription string        `short:"s" long:"subscription" choice:"auto" choice:"nonrenewing" description:"Check the products as one subscription group"`
	Duration     time.Duration `long:"duration" description:"Validity of a non-renewing subscription, e.g. 720h"`
	AsOf         string        `long:"asof" description:"Reference date (RFC 3339) when the receipt carries no request date"`

	Dump       bool   `long:"dump" description:"Dump the decoded receipt and parsed items"`
	Simulate   bool   `long:"simulate" description:"Run a simulated purchase and restore session for the products"`
	DebugLevel string `short:"d" long:"debuglevel" default:"warn" description:"Logging level {trace, debug, info, warn, error, critical}"`
}

// loadConfig parses args. A nil config with a nil error means help was
// printed.
func loadConfig(args []string) (*config, error) {
	cfg := config{}
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, err
	}

	if cfg.Response == "" && cfg.Receipt == "" && !cfg.Simulate {
		return nil, errors.New("one of --response, --receipt or --simulate is required")
	}
	if cfg.Response != "" && cfg.Receipt != "" {
		return nil, errors.New("--response and --receipt are mutually exclusive")
	}
	if cfg.Subscription == subscriptionNonRenewing && cfg.Duration <= 0 {
		return nil, errors.New("--duration is required for non-renewing subscriptions")
	}
	if cfg.Subscription != "" && len(cfg.Products) == 0 {
		return nil, errors.New("--subscription needs at least one --product")
	}
	if cfg.Simulate && len(cfg.Products) == 0 {
		return nil, errors.New("--simulate needs at least one --product")
	}
	if cfg.AsOf != "" {
		if _, err := time.Parse(time.RFC3339, cfg.AsOf); err != nil {
			return nil, fmt.Errorf("invalid --asof: %w", err)
		}
	}

	return &cfg, nil
}

func (c *config) asOf() time.Time {
	if c.AsOf == "" {
		return time.Now()
	}
	t, _ := time.Parse(time.RFC3339, c.AsOf)
	return t
}

func (c *config) subscriptionType() receipt.SubscriptionType {
	if c.Subscription == subscriptionNonRenewing {
		return receipt.NonRenewing(c.Duration)
	}
	return receipt.AutoRenewable()
}
