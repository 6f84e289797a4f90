package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/sources"
)

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// SourceRequest is the body of source create and edit requests.
// backend_data is accepted as a JSON object or as a string holding one.
type SourceRequest struct {
	Label       *string         `json:"label"`
	Enabled     *bool           `json:"enabled"`
	BackendPath *string         `json:"backend_path"`
	BackendData json.RawMessage `json:"backend_data"`
}

// backendData returns backend_data as a JSON object
func (r *SourceRequest) backendData() (json.RawMessage, error) {
	raw := bytes.TrimSpace(r.BackendData)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, err
	}
	if !json.Valid([]byte(encoded)) {
		return nil, fmt.Errorf("backend_data is not valid JSON")
	}
	return json.RawMessage(encoded), nil
}

// SourceResponse is the representation of a source
type SourceResponse struct {
	ID          int64           `json:"id"`
	Label       string          `json:"label"`
	Enabled     bool            `json:"enabled"`
	BackendPath string          `json:"backend_path"`
	BackendData json.RawMessage `json:"backend_data"`
	URL         string          `json:"url"`
}

func sourcePath(id int64) string {
	return apiPrefix + "/sources/" + strconv.FormatInt(id, 10) + "/"
}

func newSourceResponse(r *http.Request, src *sources.Source) SourceResponse {
	data := src.BackendData
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return SourceResponse{
		ID:          src.ID,
		Label:       src.Label,
		Enabled:     src.Enabled,
		BackendPath: src.BackendPath,
		BackendData: data,
		URL:         common.AbsoluteURL(r, sourcePath(src.ID)),
	}
}

// StagingFileResponse is the representation of a staging folder file
type StagingFileResponse struct {
	Filename        string `json:"filename"`
	EncodedFilename string `json:"encoded_filename"`
	URL             string `json:"url"`
	ImageURL        string `json:"image_url"`
	UploadURL       string `json:"upload_url"`
}

func stagingFilePath(sourceID int64, encodedFilename string) string {
	return fmt.Sprintf("%s/staging_folders_files/%d/%s/", apiPrefix, sourceID, encodedFilename)
}

func newStagingFileResponse(r *http.Request, sourceID int64, file *sources.StagingFile) StagingFileResponse {
	path := stagingFilePath(sourceID, file.EncodedFilename)
	return StagingFileResponse{
		Filename:        file.Filename,
		EncodedFilename: file.EncodedFilename,
		URL:             common.AbsoluteURL(r, path),
		ImageURL:        common.AbsoluteURL(r, path+"image/"),
		UploadURL:       common.AbsoluteURL(r, path+"upload/"),
	}
}

// StagingUploadBody is the body of a staging file upload
type StagingUploadBody struct {
	DocumentType int64 `json:"document_type"`
	Expand       bool  `json:"expand"`
}

// UploadResponse lists the tasks queued by an upload
type UploadResponse struct {
	Tasks []*ingest.UploadTask `json:"tasks"`
}

// ListResponse wraps collection answers
type ListResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func newListResponse[T any](results []T) ListResponse[T] {
	if results == nil {
		results = []T{}
	}
	return ListResponse[T]{Count: len(results), Results: results}
}

// redirectWithError sends a 302 to location carrying the error in the query
func redirectWithError(w http.ResponseWriter, r *http.Request, location, message string) {
	target := location
	if message != "" {
		target += "?" + url.Values{"error": {message}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}
