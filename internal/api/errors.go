package api

import (
	"context"
	"errors"
	"net/http"

	"iapkit/internal/response"
	"iapkit/pkg/logging"
	"iapkit/pkg/receipt"

	"github.com/gin-gonic/gin"
)

// ReceiptErrorData describes why a receipt could not be verified.
type ReceiptErrorData struct {
	Status      int    `json:"status"`
	Description string `json:"description"`
}

func asReceiptInvalid(err error) (*receipt.ReceiptInvalidError, bool) {
	var invalid *receipt.ReceiptInvalidError
	if errors.As(err, &invalid) {
		return invalid, true
	}
	return nil, false
}

// writeError maps verification failures onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	if invalid, ok := asReceiptInvalid(err); ok {
		response.FailData(c, http.StatusUnprocessableEntity, response.CodeReceiptInvalid,
			"Receipt is invalid",
			ReceiptErrorData{
				Status:      int(invalid.Status),
				Description: invalid.Status.String(),
			})
		return
	}

	var (
		networkErr *receipt.NetworkError
		decodeErr  *receipt.JSONDecodeError
		encodeErr  *receipt.RequestBodyEncodeError
	)
	switch {
	case errors.Is(err, receipt.ErrNoReceiptData):
		response.Fail(c, http.StatusBadRequest, response.CodeNoReceiptData, "Missing receipt data")

	case errors.Is(err, context.DeadlineExceeded):
		response.Fail(c, http.StatusGatewayTimeout, response.CodeTimeout, "Receipt validation timed out")

	case errors.As(err, &networkErr), errors.As(err, &decodeErr),
		errors.Is(err, receipt.ErrNoRemoteData):
		logging.Errorf("Receipt validation upstream failure: %v", err)
		response.Fail(c, http.StatusBadGateway, response.CodeUpstream,
			"Receipt validation failed: "+err.Error())

	case errors.As(err, &encodeErr):
		response.Fail(c, http.StatusBadRequest, response.CodeBadRequest,
			"Receipt could not be encoded: "+err.Error())

	default:
		logging.Errorf("Receipt verification failed: %v", err)
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal,
			"Verification failed: "+err.Error())
	}
}
