package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/awa/go-iap/appstore"
	"github.com/go-resty/resty/v2"
)

// Validator turns base64 receipt data into a decoded receipt. Implementations
// normally perform a network round trip and must honour ctx.
type Validator interface {
	Validate(ctx context.Context, receiptData string) (Info, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, receiptData string) (Info, error)

// Validate calls f(ctx, receiptData).
func (f ValidatorFunc) Validate(ctx context.Context, receiptData string) (Info, error) {
	return f(ctx, receiptData)
}

// Service selects the App Store validation endpoint.
type Service int

const (
	Production Service = iota
	Sandbox
)

const defaultValidatorTimeout = 30 * time.Second

var errNullResponse = errors.New("response is null")

// AppleValidator validates receipts against the App Store verifyReceipt
// endpoints.
type AppleValidator struct {
	Service                Service
	SharedSecret           string
	ExcludeOldTransactions bool

	// ProductionURL and SandboxURL default to the App Store endpoints.
	ProductionURL string
	SandboxURL    string

	client *resty.Client
}

// NewAppleValidator creates a validator for the given service. A zero timeout
// selects the default of 30 seconds.
func NewAppleValidator(service Service, sharedSecret string, timeout time.Duration) *AppleValidator {
	if timeout <= 0 {
		timeout = defaultValidatorTimeout
	}
	return &AppleValidator{
		Service:       service,
		SharedSecret:  sharedSecret,
		ProductionURL: appstore.ProductionURL,
		SandboxURL:    appstore.SandboxURL,
		client:        resty.New().SetTimeout(timeout),
	}
}

// Validate posts the receipt to the configured endpoint. A sandbox receipt sent
// to production is transparently retried against the sandbox.
func (v *AppleValidator) Validate(ctx context.Context, receiptData string) (Info, error) {
	url := v.ProductionURL
	if v.Service == Sandbox {
		url = v.SandboxURL
	}

	info, err := v.verify(ctx, url, receiptData)
	if err != nil {
		return nil, err
	}

	status := info.Status()
	if status == StatusTestReceipt && v.Service == Production {
		log.Infof("Receipt is from sandbox, retrying with sandbox URL")
		info, err = v.verify(ctx, v.SandboxURL, receiptData)
		if err != nil {
			return nil, err
		}
		status = info.Status()
	}

	if !status.IsValid() {
		return nil, &ReceiptInvalidError{Status: status, Receipt: info}
	}
	return info, nil
}

func (v *AppleValidator) verify(ctx context.Context, url, receiptData string) (Info, error) {
	body, err := json.Marshal(appstore.IAPRequest{
		ReceiptData:            receiptData,
		Password:               v.SharedSecret,
		ExcludeOldTransactions: v.ExcludeOldTransactions,
	})
	if err != nil {
		return nil, &RequestBodyEncodeError{Err: err}
	}

	client := v.client
	if client == nil {
		client = resty.New().SetTimeout(defaultValidatorTimeout)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	raw := resp.Body()
	if len(raw) == 0 {
		return nil, ErrNoRemoteData
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, &JSONDecodeError{Body: string(raw), Err: err}
	}
	if info == nil {
		return nil, &JSONDecodeError{Body: string(raw), Err: errNullResponse}
	}

	log.Debugf("Validation endpoint %s answered with status %d", url, int(info.Status()))
	return info, nil
}
