package storekit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies transaction failures reported by the platform.
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	ErrClientInvalid
	ErrPaymentCancelled
	ErrPaymentInvalid
	ErrPaymentNotAllowed
	ErrStoreProductNotAvailable
	ErrCloudServicePermissionDenied
	ErrCloudServiceNetworkConnectionFailed
	ErrCloudServiceRevoked
)

var errorCodeNames = map[ErrorCode]string{
	ErrUnknown:                             "unknown error",
	ErrClientInvalid:                       "client is not allowed to issue the request",
	ErrPaymentCancelled:                    "payment cancelled",
	ErrPaymentInvalid:                      "purchase identifier was invalid",
	ErrPaymentNotAllowed:                   "device is not allowed to make the payment",
	ErrStoreProductNotAvailable:            "product is not available in the current storefront",
	ErrCloudServicePermissionDenied:        "cloud service access denied",
	ErrCloudServiceNetworkConnectionFailed: "could not connect to the network",
	ErrCloudServiceRevoked:                 "cloud service permission revoked",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error code %d", int(c))
}

// TransactionError is the error delivered for failed purchases and restores.
type TransactionError struct {
	Code ErrorCode
	Err  error
}

func (e *TransactionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *TransactionError) Unwrap() error { return e.Err }

// transactionError converts whatever the platform attached to a failed
// transaction into a *TransactionError. A missing error becomes ErrUnknown.
func transactionError(err error) *TransactionError {
	if err == nil {
		return &TransactionError{Code: ErrUnknown}
	}
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return txErr
	}
	return &TransactionError{Code: ErrUnknown, Err: err}
}

var (
	// ErrRestoreInProgress is returned when a restore is requested while
	// another one has not completed yet.
	ErrRestoreInProgress = errors.New("restore purchases already in progress")

	// ErrNoProducts is reported by a product lookup that found nothing.
	ErrNoProducts = errors.New("no products found")

	// ErrKitClosed is returned by entry points called after Close.
	ErrKitClosed = errors.New("storekit: kit closed")
)

// InvalidProductIDsError lists identifiers the store did not recognise.
type InvalidProductIDsError struct {
	IDs []string
}

func (e *InvalidProductIDsError) Error() string {
	return "invalid product identifiers: " + strings.Join(e.IDs, ", ")
}
