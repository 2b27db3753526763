// Package handlers implements the REST endpoints.
package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/pkg/api"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

var validate = validator.New()

// respondServiceError maps the application error taxonomy onto HTTP
// status codes. Messages are passed through verbatim; refund notices and
// provider messages are part of the user-facing contract.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case appErrors.IsValidation(err):
		status = http.StatusBadRequest
	case appErrors.IsAuth(err):
		status = http.StatusUnauthorized
	case appErrors.IsNotFound(err):
		status = http.StatusNotFound
	case appErrors.IsConflict(err):
		status = http.StatusConflict
	case appErrors.IsTransport(err), appErrors.IsEmptyResult(err), appErrors.IsParse(err):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.Error("unhandled service error", zap.Error(err))
		api.Error(w, status, "internal server error")
		return
	}
	api.Error(w, status, err.Error())
}
