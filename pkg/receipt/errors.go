package receipt

import (
	"errors"
	"fmt"

	"github.com/awa/go-iap/appstore"
)

// ReceiptStatus is the numeric status code returned by the validation
// endpoint.
type ReceiptStatus int

const (
	StatusUnknown                        ReceiptStatus = -2
	StatusNone                           ReceiptStatus = -1
	StatusValid                          ReceiptStatus = 0
	StatusJSONNotReadable                ReceiptStatus = 21000
	StatusMalformedOrMissingData         ReceiptStatus = 21002
	StatusReceiptCouldNotBeAuthenticated ReceiptStatus = 21003
	StatusSecretNotMatching              ReceiptStatus = 21004
	StatusReceiptServerUnavailable       ReceiptStatus = 21005
	StatusSubscriptionExpired            ReceiptStatus = 21006
	StatusTestReceipt                    ReceiptStatus = 21007
	StatusProductionEnvironment          ReceiptStatus = 21008
	StatusNotAuthorized                  ReceiptStatus = 21010
)

// IsValid reports whether the receipt was accepted.
func (s ReceiptStatus) IsValid() bool {
	return s == StatusValid
}

func (s ReceiptStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusValid:
		return "valid"
	case StatusUnknown:
		return "unknown"
	}
	if err := appstore.HandleError(int(s)); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("status %d", int(s))
}

var (
	// ErrNoReceiptData is returned when there is no local receipt to send.
	ErrNoReceiptData = errors.New("no receipt data")

	// ErrNoRemoteData is returned when the validation endpoint answered with
	// an empty body.
	ErrNoRemoteData = errors.New("no remote data")
)

// RequestBodyEncodeError is returned when the validation request could not be
// serialized.
type RequestBodyEncodeError struct {
	Err error
}

func (e *RequestBodyEncodeError) Error() string {
	return fmt.Sprintf("failed to encode request body: %v", e.Err)
}

func (e *RequestBodyEncodeError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure talking to the validation endpoint.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to verify receipt: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// JSONDecodeError is returned when the endpoint response is not a JSON object.
type JSONDecodeError struct {
	Body string
	Err  error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

func (e *JSONDecodeError) Unwrap() error { return e.Err }

// ReceiptInvalidError is returned for any non-zero status. Receipt holds the
// decoded response for diagnostics.
type ReceiptInvalidError struct {
	Status  ReceiptStatus
	Receipt Info
}

func (e *ReceiptInvalidError) Error() string {
	return fmt.Sprintf("receipt invalid with status %d: %v", int(e.Status), e.Status)
}
