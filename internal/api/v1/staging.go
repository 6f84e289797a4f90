package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/auth"
	"github.com/stacklok/docsource-server/internal/converter"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
)

// stagingParams reads the source ID and encoded filename of a staging file route
func stagingParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	sourceID, ok := sourceIDParam(w, r)
	if !ok {
		return 0, "", false
	}
	encoded, err := common.GetAndValidateURLParam(r, "encodedFilename")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return 0, "", false
	}
	return sourceID, encoded, true
}

// listStagingFiles handles GET /api/v1/sources/{sourceID}/files
//
// @Summary		List staging files
// @Tags		staging
// @Produce		json
// @Param		sourceID	path		int	true	"Staging folder source ID"
// @Success		200			{object}	ListResponse[StagingFileResponse]
// @Failure		404			{object}	ErrorResponse	"Source not found or not a staging folder"
// @Router		/api/v1/sources/{sourceID}/files [get]
func (routes *Routes) listStagingFiles(w http.ResponseWriter, r *http.Request) {
	sourceID, ok := sourceIDParam(w, r)
	if !ok {
		return
	}

	files, err := routes.service.ListStagingFiles(r.Context(), sourceID)
	if err != nil {
		writeServiceError(w, err, "Failed to list staging files")
		return
	}

	results := make([]StagingFileResponse, len(files))
	for i, file := range files {
		results[i] = newStagingFileResponse(r, sourceID, file)
	}
	common.WriteJSONResponse(w, newListResponse(results), http.StatusOK)
}

// getStagingFile handles GET /api/v1/staging_folders_files/{sourceID}/{encodedFilename}/
//
// @Summary		Get staging file
// @Tags		staging
// @Produce		json
// @Param		sourceID		path		int		true	"Staging folder source ID"
// @Param		encodedFilename	path		string	true	"Encoded filename"
// @Success		200				{object}	StagingFileResponse
// @Failure		404				{object}	ErrorResponse	"Staging file not found"
// @Router		/api/v1/staging_folders_files/{sourceID}/{encodedFilename}/ [get]
func (routes *Routes) getStagingFile(w http.ResponseWriter, r *http.Request) {
	sourceID, encoded, ok := stagingParams(w, r)
	if !ok {
		return
	}

	file, err := routes.service.GetStagingFile(r.Context(), sourceID, encoded)
	if err != nil {
		writeServiceError(w, err, "Failed to get staging file")
		return
	}
	common.WriteJSONResponse(w, newStagingFileResponse(r, sourceID, file), http.StatusOK)
}

// deleteStagingFile handles DELETE /api/v1/staging_folders_files/{sourceID}/{encodedFilename}/
//
// @Summary		Delete staging file
// @Description	Delete a staging file and its cached preview images
// @Tags		staging
// @Param		sourceID		path	int		true	"Staging folder source ID"
// @Param		encodedFilename	path	string	true	"Encoded filename"
// @Success		204	"No content"
// @Failure		404	{object}	ErrorResponse	"Staging file not found"
// @Router		/api/v1/staging_folders_files/{sourceID}/{encodedFilename}/ [delete]
func (routes *Routes) deleteStagingFile(w http.ResponseWriter, r *http.Request) {
	sourceID, encoded, ok := stagingParams(w, r)
	if !ok {
		return
	}

	if err := routes.service.DeleteStagingFile(r.Context(), sourceID, encoded); err != nil {
		writeServiceError(w, err, "Failed to delete staging file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteStagingFileForm handles POST /api/v1/staging_folders/{sourceID}/files/{encodedFilename}/delete/
//
// @Summary		Delete staging file (form)
// @Description	Form style delete that redirects to the staging file list
// @Tags		staging
// @Param		sourceID		path	int		true	"Staging folder source ID"
// @Param		encodedFilename	path	string	true	"Encoded filename"
// @Success		302	"Redirects to the staging file list"
// @Failure		404	{object}	ErrorResponse	"Staging file not found"
// @Router		/api/v1/staging_folders/{sourceID}/files/{encodedFilename}/delete/ [post]
func (routes *Routes) deleteStagingFileForm(w http.ResponseWriter, r *http.Request) {
	sourceID, encoded, ok := stagingParams(w, r)
	if !ok {
		return
	}

	if err := routes.service.DeleteStagingFile(r.Context(), sourceID, encoded); err != nil {
		writeServiceError(w, err, "Failed to delete staging file")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("%s/sources/%d/files", apiPrefix, sourceID), http.StatusFound)
}

// getStagingFileImage handles GET /api/v1/staging_folders_files/{sourceID}/{encodedFilename}/image/
//
// @Summary		Get staging file preview
// @Description	Render the preview image of a staging file. Rendered images are cached.
// @Tags		staging
// @Produce		png
// @Param		sourceID		path	int		true	"Staging folder source ID"
// @Param		encodedFilename	path	string	true	"Encoded filename"
// @Param		width			query	int		false	"Preview width"
// @Param		height			query	int		false	"Preview height"
// @Param		rotation		query	number	false	"Rotation in degrees"
// @Param		zoom			query	number	false	"Zoom in percent"
// @Success		200	{file}		binary
// @Failure		404	{object}	ErrorResponse	"Staging file not found"
// @Failure		415	{object}	ErrorResponse	"File is not an image"
// @Router		/api/v1/staging_folders_files/{sourceID}/{encodedFilename}/image/ [get]
func (routes *Routes) getStagingFileImage(w http.ResponseWriter, r *http.Request) {
	sourceID, encoded, ok := stagingParams(w, r)
	if !ok {
		return
	}
	opts, err := imageOptions(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := routes.service.GetStagingFileImage(r.Context(), sourceID, encoded, opts)
	if err != nil {
		writeServiceError(w, err, "Failed to generate staging file image")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func imageOptions(r *http.Request) (sources.ImageOptions, error) {
	query := r.URL.Query()
	var opts sources.ImageOptions

	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 || value > converter.MaxDimension {
			return opts, fmt.Errorf("invalid %s parameter: must be an integer between 0 and %d",
				name, converter.MaxDimension)
		}
		*dst = value
	}

	if raw := query.Get("rotation"); raw != "" {
		degrees, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New("invalid rotation parameter: must be a number")
		}
		if degrees != 0 {
			opts.Transformations = append(opts.Transformations, converter.Rotate{Degrees: degrees})
		}
	}
	if raw := query.Get("zoom"); raw != "" {
		percent, err := strconv.ParseFloat(raw, 64)
		if err != nil || percent < converter.ZoomMin || percent > converter.ZoomMax {
			return opts, fmt.Errorf("invalid zoom parameter: must be a number between %d and %d",
				converter.ZoomMin, converter.ZoomMax)
		}
		if percent != 100 {
			opts.Transformations = append(opts.Transformations, converter.Zoom{Percent: percent})
		}
	}
	return opts, nil
}

// uploadStagingFile handles POST /api/v1/staging_folders_files/{sourceID}/{encodedFilename}/upload/
//
// @Summary		Upload staging file
// @Description	Queue a staging file for ingestion, then run the staging cleanup
// @Tags		staging
// @Accept		json
// @Produce		json
// @Param		sourceID		path		int					true	"Staging folder source ID"
// @Param		encodedFilename	path		string				true	"Encoded filename"
// @Param		upload			body		StagingUploadBody	true	"Upload"
// @Success		202				{object}	ingest.UploadTask
// @Failure		400				{object}	ErrorResponse	"Invalid upload"
// @Failure		404				{object}	ErrorResponse	"Staging file not found"
// @Failure		500				{object}	ErrorResponse	"Upload failed"
// @Router		/api/v1/staging_folders_files/{sourceID}/{encodedFilename}/upload/ [post]
func (routes *Routes) uploadStagingFile(w http.ResponseWriter, r *http.Request) {
	sourceID, encoded, ok := stagingParams(w, r)
	if !ok {
		return
	}
	var body StagingUploadBody
	if !decodeJSONBody(w, r, &body) {
		return
	}
	if body.DocumentType <= 0 {
		writeServiceError(w, sources.NewValidationError("document_type", "This field is required."), "")
		return
	}

	task, err := routes.service.UploadStagingFile(r.Context(), sourceID, encoded, &service.StagingUploadRequest{
		DocumentTypeID: body.DocumentType,
		Expand:         body.Expand,
		UserID:         auth.UserID(r.Context()),
	})
	if err != nil {
		writeUploadError(w, err)
		return
	}
	common.WriteJSONResponse(w, task, http.StatusAccepted)
}
