package handlers

import (
	"errors"
	"net/http"
	"strings"

	"goslim/pkg/common"
	pkgerrors "goslim/pkg/errors"

	"go.uber.org/zap"
)

// respondBusError maps a bus dispatch error onto the API envelope. Domain
// errors carry their own status codes; bus validation failures are client
// errors; everything else is an opaque 500 so internals never leak.
func respondBusError(logger *zap.Logger, w http.ResponseWriter, err error, fallback string) {
	var domainErr *pkgerrors.DomainError
	if errors.As(err, &domainErr) {
		status := domainErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.RespondError(w, status, domainErr.Code, domainErr.Message)
		return
	}

	if strings.Contains(err.Error(), "validation failed") {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	logger.Error(fallback, zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError,
		common.StandardErrorCodes.InternalError, fallback)
}
