package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"

	"iapkit/pkg/receipt"
)

// loadInfo reads a saved response, or validates a raw receipt file.
func loadInfo(ctx context.Context, cfg *config) (receipt.Info, error) {
	if cfg.Response != "" {
		raw, err := os.ReadFile(cfg.Response)
		if err != nil {
			return nil, err
		}
		var info receipt.Info
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", cfg.Response, err)
		}
		return info, nil
	}

	data, err := receipt.FileStore{Path: cfg.Receipt}.Data()
	if err != nil {
		return nil, err
	}

	service := receipt.Production
	if cfg.Sandbox {
		service = receipt.Sandbox
	}
	v := receipt.NewAppleValidator(service, cfg.Secret, cfg.Timeout)
	return v.Validate(ctx, base64.StdEncoding.EncodeToString(data))
}

// report prints the verdicts for cfg against info.
func report(w io.Writer, cfg *config, info receipt.Info) {
	status := info.Status()
	fmt.Fprintf(w, "status: %d (%v)\n", int(status), status)
	if requestDate, ok := info.RequestDate(); ok {
		fmt.Fprintf(w, "request date: %s\n", requestDate.Format(time.RFC3339))
	}

	for _, typ := range []receipt.SubscriptionType{receipt.NonRenewing(0), receipt.AutoRenewable()} {
		label := "in_app"
		if typ.IsAutoRenewable() {
			label = "latest_receipt_info"
		}
		if ids, ok := receipt.GetDistinctPurchaseIDs(typ, info); ok {
			fmt.Fprintf(w, "%s products: %s\n", label, strings.Join(ids, ", "))
		}
	}

	switch {
	case cfg.Subscription != "":
		typ := cfg.subscriptionType()
		result := receipt.VerifySubscriptions(typ, cfg.Products, info, cfg.asOf())
		fmt.Fprintf(w, "subscription %s [%s]: %v", typ, strings.Join(cfg.Products, ", "), result.Verdict)
		if result.Verdict != receipt.NotPurchased {
			fmt.Fprintf(w, " (expires %s)", result.ExpiryDate.Format(time.RFC3339))
		}
		fmt.Fprintln(w)

		if cfg.Dump {
			spew.Fdump(w, result.Items)
		}

	default:
		for _, productID := range cfg.Products {
			result := receipt.VerifyPurchase(productID, info)
			fmt.Fprintf(w, "purchase %s: %v", productID, result.Verdict)
			if result.Verdict == receipt.Purchased {
				fmt.Fprintf(w, " (transaction %s on %s)", result.Item.TransactionID,
					result.Item.PurchaseDate.Format(time.RFC3339))
			}
			fmt.Fprintln(w)

			if cfg.Dump && result.Verdict == receipt.Purchased {
				spew.Fdump(w, result.Item)
			}
		}
	}

	if cfg.Dump {
		spew.Fdump(w, info)
	}
}
