package v1

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/auth"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
)

// maxUploadMemory is the part of a multipart upload kept in memory
const maxUploadMemory = 32 << 20

// UploadViewResponse is the upload view context
type UploadViewResponse struct {
	Source  SourceResponse   `json:"source"`
	Sources []SourceResponse `json:"sources"`
	Context map[string]any   `json:"context"`
}

// getUploadView handles GET /api/v1/upload
//
// @Summary		Upload view
// @Description	Context of the document upload view. The first enabled interactive
// @Description	source is selected unless source_id names another one.
// @Tags		upload
// @Produce		json
// @Param		source_id	query		int	false	"Interactive source ID"
// @Success		200			{object}	UploadViewResponse
// @Success		302			"No interactive source, redirects to the source list"
// @Failure		404			{object}	ErrorResponse	"Not an enabled interactive source"
// @Router		/api/v1/upload [get]
func (routes *Routes) getUploadView(w http.ResponseWriter, r *http.Request) {
	var sourceID *int64
	if raw := r.URL.Query().Get("source_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			common.WriteErrorResponse(w, "source not found", http.StatusNotFound)
			return
		}
		sourceID = &id
	}

	view, err := routes.service.GetUploadView(r.Context(), sourceID)
	if errors.Is(err, service.ErrNoInteractiveSources) {
		redirectWithError(w, r, apiPrefix+"/sources", err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, err, "Failed to get upload view")
		return
	}

	resp := UploadViewResponse{
		Source:  newSourceResponse(r, view.Source),
		Sources: make([]SourceResponse, len(view.Sources)),
		Context: view.Context,
	}
	for i, src := range view.Sources {
		resp.Sources[i] = newSourceResponse(r, src)
	}
	if resp.Context == nil {
		resp.Context = map[string]any{}
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// upload handles POST /api/v1/sources/{sourceID}/upload
//
// @Summary		Interactive upload
// @Description	Upload web form files or run a scanner acquisition. The query string is
// @Description	forwarded to the post upload wizard steps.
// @Tags		upload
// @Accept		multipart/form-data
// @Produce		json
// @Param		sourceID			path		int		true	"Source ID"
// @Param		document_type_id	formData	int		true	"Document type ID"
// @Param		files				formData	file	false	"Files (web form sources)"
// @Param		staging_file_id		formData	string	false	"Encoded staging file name (staging folder sources)"
// @Param		label				formData	string	false	"Document label"
// @Param		description			formData	string	false	"Document description"
// @Param		language			formData	string	false	"Document language"
// @Param		expand				formData	bool	false	"Uncompress archives when the source asks"
// @Success		202	{object}	UploadResponse
// @Failure		400	{object}	ErrorResponse	"Invalid upload"
// @Failure		404	{object}	ErrorResponse	"Source not found or not interactive"
// @Failure		500	{object}	ErrorResponse	"Upload failed"
// @Router		/api/v1/sources/{sourceID}/upload [post]
func (routes *Routes) upload(w http.ResponseWriter, r *http.Request) {
	id, ok := sourceIDParam(w, r)
	if !ok {
		return
	}

	req, err := uploadRequest(r)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	tasks, err := routes.service.Upload(r.Context(), id, req)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	common.WriteJSONResponse(w, UploadResponse{Tasks: tasks}, http.StatusAccepted)
}

// uploadRequest reads a multipart or url encoded upload form
func uploadRequest(r *http.Request) (*sources.UploadRequest, error) {
	err := r.ParseMultipartForm(maxUploadMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, sources.NewValidationError("", "Invalid upload form: "+err.Error())
	}

	ve := &sources.ValidationError{}
	documentTypeID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("document_type_id")), 10, 64)
	if err != nil || documentTypeID <= 0 {
		ve.Add("document_type_id", "A valid document type ID is required.")
	}
	expand, err := parseBool(r.PostFormValue("expand"))
	if err != nil {
		ve.Add("expand", "Enter a valid boolean.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	req := &sources.UploadRequest{
		DocumentTypeID: documentTypeID,
		UserID:         auth.UserID(r.Context()),
		Label:          r.PostFormValue("label"),
		Description:    r.PostFormValue("description"),
		Language:       r.PostFormValue("language"),
		Expand:         expand,
		StagingFile:    strings.TrimSpace(r.PostFormValue("staging_file_id")),
		Query:          r.URL.Query(),
	}
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			req.Files = append(req.Files, incomingFile(header))
		}
	}
	return req, nil
}

func incomingFile(header *multipart.FileHeader) sources.IncomingFile {
	return sources.IncomingFile{
		Filename: header.Filename,
		Open: func() (io.ReadCloser, error) {
			f, err := header.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// parseBool accepts the form spellings of a checkbox
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off", "no":
		return false, nil
	case "1", "true", "on", "yes":
		return true, nil
	default:
		return false, strconv.ErrSyntax
	}
}
