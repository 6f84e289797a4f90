package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
)

// maxRequestBodySize bounds JSON request bodies
const maxRequestBodySize = 1 << 20

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func sourceIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := common.GetIDParam(r, "sourceID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// listSources handles GET /api/v1/sources
//
// @Summary		List sources
// @Description	Get every document source ordered by label
// @Tags		sources
// @Produce		json
// @Success		200	{object}	ListResponse[SourceResponse]
// @Router		/api/v1/sources [get]
func (routes *Routes) listSources(w http.ResponseWriter, r *http.Request) {
	list, err := routes.service.ListSources(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list sources")
		return
	}

	results := make([]SourceResponse, len(list))
	for i, src := range list {
		results[i] = newSourceResponse(r, src)
	}
	common.WriteJSONResponse(w, newListResponse(results), http.StatusOK)
}

// createSource handles POST /api/v1/sources
//
// @Summary		Create source
// @Description	Validate and create a document source. enabled defaults to true.
// @Tags		sources
// @Accept		json
// @Produce		json
// @Param		source	body		SourceRequest	true	"Source"
// @Success		201		{object}	SourceResponse
// @Failure		400		{object}	ErrorResponse	"Invalid source"
// @Router		/api/v1/sources [post]
func (routes *Routes) createSource(w http.ResponseWriter, r *http.Request) {
	var body SourceRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}

	input, err := sourceInput(&body)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	src, err := routes.service.CreateSource(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "Failed to create source")
		return
	}
	common.WriteJSONResponse(w, newSourceResponse(r, src), http.StatusCreated)
}

func sourceInput(body *SourceRequest) (*service.SourceInput, error) {
	ve := &sources.ValidationError{}
	if body.Label == nil || strings.TrimSpace(*body.Label) == "" {
		ve.Add("label", "This field is required.")
	}
	if body.BackendPath == nil || strings.TrimSpace(*body.BackendPath) == "" {
		ve.Add("backend_path", "This field is required.")
	}
	data, err := body.backendData()
	if err != nil {
		ve.Add("backend_data", "Enter a valid JSON object.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}
	return &service.SourceInput{
		Label:       *body.Label,
		Enabled:     enabled,
		BackendPath: *body.BackendPath,
		BackendData: data,
	}, nil
}

// getSource handles GET /api/v1/sources/{sourceID}
//
// @Summary		Get source
// @Tags		sources
// @Produce		json
// @Param		sourceID	path		int	true	"Source ID"
// @Success		200			{object}	SourceResponse
// @Failure		404			{object}	ErrorResponse	"Source not found"
// @Router		/api/v1/sources/{sourceID}/ [get]
func (routes *Routes) getSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceIDParam(w, r)
	if !ok {
		return
	}

	src, err := routes.service.GetSource(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get source")
		return
	}
	common.WriteJSONResponse(w, newSourceResponse(r, src), http.StatusOK)
}

// updateSource handles PUT /api/v1/sources/{sourceID}
//
// @Summary		Replace source
// @Description	Full edit of a source. label and backend_path are required.
// @Tags		sources
// @Accept		json
// @Produce		json
// @Param		sourceID	path		int				true	"Source ID"
// @Param		source		body		SourceRequest	true	"Source"
// @Success		200			{object}	SourceResponse
// @Failure		400			{object}	ErrorResponse	"Invalid source"
// @Failure		404			{object}	ErrorResponse	"Source not found"
// @Router		/api/v1/sources/{sourceID}/ [put]
func (routes *Routes) updateSource(w http.ResponseWriter, r *http.Request) {
	routes.handleUpdateSource(w, r, false)
}

// patchSource handles PATCH /api/v1/sources/{sourceID}
//
// @Summary		Edit source
// @Description	Partial edit of a source. Omitted fields keep their value.
// @Tags		sources
// @Accept		json
// @Produce		json
// @Param		sourceID	path		int				true	"Source ID"
// @Param		source		body		SourceRequest	true	"Source"
// @Success		200			{object}	SourceResponse
// @Failure		400			{object}	ErrorResponse	"Invalid source"
// @Failure		404			{object}	ErrorResponse	"Source not found"
// @Router		/api/v1/sources/{sourceID}/ [patch]
func (routes *Routes) patchSource(w http.ResponseWriter, r *http.Request) {
	routes.handleUpdateSource(w, r, true)
}

// handleUpdateSource is a shared helper for full and partial edits
func (routes *Routes) handleUpdateSource(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := sourceIDParam(w, r)
	if !ok {
		return
	}
	var body SourceRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}

	ve := &sources.ValidationError{}
	if !partial {
		if body.Label == nil {
			ve.Add("label", "This field is required.")
		}
		if body.BackendPath == nil {
			ve.Add("backend_path", "This field is required.")
		}
	}
	data, err := body.backendData()
	if err != nil {
		ve.Add("backend_data", "Enter a valid JSON object.")
	}
	if !ve.Empty() {
		writeServiceError(w, ve, "")
		return
	}

	src, err := routes.service.UpdateSource(r.Context(), id, &service.SourceUpdate{
		Label:       body.Label,
		Enabled:     body.Enabled,
		BackendPath: body.BackendPath,
		BackendData: data,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to update source")
		return
	}
	common.WriteJSONResponse(w, newSourceResponse(r, src), http.StatusOK)
}

// deleteSource handles DELETE /api/v1/sources/{sourceID}
//
// @Summary		Delete source
// @Tags		sources
// @Param		sourceID	path	int	true	"Source ID"
// @Success		204	"No content"
// @Failure		404	{object}	ErrorResponse	"Source not found"
// @Router		/api/v1/sources/{sourceID}/ [delete]
func (routes *Routes) deleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceIDParam(w, r)
	if !ok {
		return
	}

	if err := routes.service.DeleteSource(r.Context(), id); err != nil {
		writeServiceError(w, err, "Failed to delete source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// testSource handles POST /api/v1/sources/{sourceID}/test
//
// @Summary		Test source
// @Description	Run one periodic check in test mode. Files and messages are left in place.
// @Tags		sources
// @Produce		json
// @Param		sourceID	path		int	true	"Source ID"
// @Success		200			{object}	sources.ProcessResult
// @Failure		400			{object}	ErrorResponse	"Source is not periodic"
// @Failure		409			{object}	ErrorResponse	"Source is being checked"
// @Router		/api/v1/sources/{sourceID}/test [post]
func (routes *Routes) testSource(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceIDParam(w, r)
	if !ok {
		return
	}

	result, err := routes.service.TestSource(r.Context(), id)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			common.WriteErrorResponse(w, err.Error(), code)
			return
		}
		writeServiceError(w, err, "")
		return
	}
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// getSourceStatus handles GET /api/v1/sources/{sourceID}/status
//
// @Summary		Get periodic check status
// @Tags		sources
// @Produce		json
// @Param		sourceID	path		int	true	"Source ID"
// @Success		200			{object}	status.CheckStatus
// @Failure		404			{object}	ErrorResponse	"Source not found"
// @Router		/api/v1/sources/{sourceID}/status [get]
func (routes *Routes) getSourceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceIDParam(w, r)
	if !ok {
		return
	}

	st, err := routes.service.GetSourceStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get source status")
		return
	}
	common.WriteJSONResponse(w, st, http.StatusOK)
}

// listBackends handles GET /api/v1/source_backends
//
// @Summary		List source backends
// @Tags		sources
// @Produce		json
// @Success		200	{object}	ListResponse[sources.BackendChoice]
// @Router		/api/v1/source_backends [get]
func (routes *Routes) listBackends(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, newListResponse(routes.service.ListBackends()), http.StatusOK)
}

// getBackendSchema handles GET /api/v1/source_backends/{backendPath}
//
// @Summary		Get backend setup form
// @Tags		sources
// @Produce		json
// @Param		backendPath	path		string	true	"Backend path (e.g., \"sources.WebForm\")"
// @Success		200			{object}	sources.Schema
// @Failure		404			{object}	ErrorResponse	"Backend not found"
// @Router		/api/v1/source_backends/{backendPath} [get]
func (routes *Routes) getBackendSchema(w http.ResponseWriter, r *http.Request) {
	path, err := common.GetAndValidateURLParam(r, "backendPath")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	schema, err := routes.service.GetBackendSchema(path)
	if err != nil {
		if errors.Is(err, sources.ErrBackendNotFound) {
			common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
			return
		}
		writeServiceError(w, err, "Failed to get backend schema")
		return
	}
	common.WriteJSONResponse(w, schema, http.StatusOK)
}

