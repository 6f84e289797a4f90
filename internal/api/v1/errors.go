package v1

import (
	"errors"
	"net/http"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/converter"
	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/scheduler"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
)

var notFoundErrors = []error{
	sources.ErrSourceNotFound,
	sources.ErrStagingFileNotFound,
	sources.ErrInvalidEncodedFilename,
	sources.ErrNotInteractive,
	service.ErrNotStagingFolder,
	service.ErrDocumentFileNotFound,
	documents.ErrDocumentNotFound,
	documents.ErrDocumentTypeNotFound,
	documents.ErrMetadataTypeNotFound,
}

var badRequestErrors = []error{
	sources.ErrDuplicateLabel,
	sources.ErrBackendNotFound,
	service.ErrNotPeriodic,
	documents.ErrAlreadyExists,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to an HTTP status code
func statusFor(err error) int {
	var ve *sources.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case errors.Is(err, sources.ErrSourceBusy), errors.Is(err, scheduler.ErrCheckInProgress):
		return http.StatusConflict
	case errors.Is(err, converter.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, sources.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers err with its status code. Internal errors are
// logged and answered with fallback instead of the error text.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	code := statusFor(err)

	var ve *sources.ValidationError
	if errors.As(err, &ve) {
		common.WriteJSONResponse(w, ErrorResponse{Error: ve.Error(), Fields: ve.Fields}, code)
		return
	}
	if code == http.StatusInternalServerError {
		logger.Errorf("%s: %v", fallback, err)
		common.WriteErrorResponse(w, fallback, code)
		return
	}
	common.WriteErrorResponse(w, err.Error(), code)
}

// writeUploadError answers a failed upload. A missing document type is a
// client error there, and other failures carry their message.
func writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, documents.ErrDocumentTypeNotFound) {
		writeServiceError(w, sources.NewValidationError("document_type", err.Error()), "")
		return
	}
	if code := statusFor(err); code != http.StatusInternalServerError {
		writeServiceError(w, err, "")
		return
	}
	logger.Errorf("Upload failed: %v", err)
	common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
}
