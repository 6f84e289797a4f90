package v1

import (
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/stacklok/docsource-server/internal/api/common"
	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/logger"
)

// WizardStepResponse is the representation of a document creation wizard step
type WizardStepResponse struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Label  string `json:"label"`
}

// listDocumentTypes handles GET /api/v1/document_types
//
// @Summary		List document types
// @Tags		documents
// @Produce		json
// @Success		200	{object}	ListResponse[documents.DocumentType]
// @Router		/api/v1/document_types [get]
func (routes *Routes) listDocumentTypes(w http.ResponseWriter, r *http.Request) {
	list, err := routes.service.ListDocumentTypes(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list document types")
		return
	}
	common.WriteJSONResponse(w, newListResponse(list), http.StatusOK)
}

// getDocumentType handles GET /api/v1/document_types/{documentTypeID}
//
// @Summary		Get document type
// @Tags		documents
// @Produce		json
// @Param		documentTypeID	path		int	true	"Document type ID"
// @Success		200				{object}	documents.DocumentType
// @Failure		404				{object}	ErrorResponse	"Document type not found"
// @Router		/api/v1/document_types/{documentTypeID} [get]
func (routes *Routes) getDocumentType(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetIDParam(r, "documentTypeID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	docType, err := routes.service.GetDocumentType(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get document type")
		return
	}
	common.WriteJSONResponse(w, docType, http.StatusOK)
}

// createDocumentType handles POST /api/v1/document_types
//
// @Summary		Create document type
// @Tags		documents
// @Accept		json
// @Produce		json
// @Param		documentType	body		documents.DocumentType	true	"Document type"
// @Success		201				{object}	documents.DocumentType
// @Failure		400				{object}	ErrorResponse	"Invalid document type"
// @Router		/api/v1/document_types [post]
func (routes *Routes) createDocumentType(w http.ResponseWriter, r *http.Request) {
	var body documents.DocumentType
	if !decodeJSONBody(w, r, &body) {
		return
	}
	body.ID = 0

	created, err := routes.service.CreateDocumentType(r.Context(), &body)
	if err != nil {
		writeServiceError(w, err, "Failed to create document type")
		return
	}
	common.WriteJSONResponse(w, created, http.StatusCreated)
}

// listMetadataTypes handles GET /api/v1/metadata_types
//
// @Summary		List metadata types
// @Tags		documents
// @Produce		json
// @Success		200	{object}	ListResponse[documents.MetadataType]
// @Router		/api/v1/metadata_types [get]
func (routes *Routes) listMetadataTypes(w http.ResponseWriter, r *http.Request) {
	list, err := routes.service.ListMetadataTypes(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list metadata types")
		return
	}
	common.WriteJSONResponse(w, newListResponse(list), http.StatusOK)
}

// createMetadataType handles POST /api/v1/metadata_types
//
// @Summary		Create metadata type
// @Tags		documents
// @Accept		json
// @Produce		json
// @Param		metadataType	body		documents.MetadataType	true	"Metadata type"
// @Success		201				{object}	documents.MetadataType
// @Failure		400				{object}	ErrorResponse	"Invalid metadata type"
// @Router		/api/v1/metadata_types [post]
func (routes *Routes) createMetadataType(w http.ResponseWriter, r *http.Request) {
	var body documents.MetadataType
	if !decodeJSONBody(w, r, &body) {
		return
	}
	body.ID = 0

	created, err := routes.service.CreateMetadataType(r.Context(), &body)
	if err != nil {
		writeServiceError(w, err, "Failed to create metadata type")
		return
	}
	common.WriteJSONResponse(w, created, http.StatusCreated)
}

// listDocuments handles GET /api/v1/documents
//
// @Summary		List documents
// @Description	List documents, newest first
// @Tags		documents
// @Produce		json
// @Param		limit				query		int	false	"Maximum number of items to return"
// @Param		offset				query		int	false	"Number of items to skip"
// @Param		document_type_id	query		int	false	"Filter by document type"
// @Param		source_id			query		int	false	"Filter by source"
// @Success		200					{object}	ListResponse[documents.Document]
// @Failure		400					{object}	ErrorResponse	"Bad request"
// @Router		/api/v1/documents [get]
func (routes *Routes) listDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var opts documents.ListOptions

	ints := []struct {
		name string
		dst  *int
	}{
		{"limit", &opts.Limit},
		{"offset", &opts.Offset},
	}
	for _, param := range ints {
		raw := query.Get(param.name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid "+param.name+" parameter: must be an integer", http.StatusBadRequest)
			return
		}
		*param.dst = value
	}

	ids := []struct {
		name string
		dst  *int64
	}{
		{"document_type_id", &opts.DocumentTypeID},
		{"source_id", &opts.SourceID},
	}
	for _, param := range ids {
		raw := query.Get(param.name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid "+param.name+" parameter: must be an integer", http.StatusBadRequest)
			return
		}
		*param.dst = value
	}

	list, err := routes.service.ListDocuments(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err, "Failed to list documents")
		return
	}
	common.WriteJSONResponse(w, newListResponse(list), http.StatusOK)
}

// getDocument handles GET /api/v1/documents/{documentID}
//
// @Summary		Get document
// @Tags		documents
// @Produce		json
// @Param		documentID	path		int	true	"Document ID"
// @Success		200			{object}	documents.Document
// @Failure		404			{object}	ErrorResponse	"Document not found"
// @Router		/api/v1/documents/{documentID} [get]
func (routes *Routes) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetIDParam(r, "documentID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := routes.service.GetDocument(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get document")
		return
	}
	common.WriteJSONResponse(w, doc, http.StatusOK)
}

// downloadDocument handles GET /api/v1/documents/{documentID}/download
//
// @Summary		Download document file
// @Tags		documents
// @Produce		octet-stream
// @Param		documentID	path	int	true	"Document ID"
// @Success		200	{file}		binary
// @Failure		404	{object}	ErrorResponse	"Document or file not found"
// @Router		/api/v1/documents/{documentID}/download [get]
func (routes *Routes) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetIDParam(r, "documentID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, file, err := routes.service.OpenDocumentFile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to open document file")
		return
	}
	defer file.Close()

	mimetype := doc.Mimetype
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimetype)
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName(doc)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		logger.Warnf("Failed to stream document %d: %v", doc.ID, err)
	}
}

// downloadName is the document label without path elements or quotes
func downloadName(doc *documents.Document) string {
	name := path.Base(doc.Label)
	if name == "." || name == "/" || name == "" {
		name = doc.UUID.String()
	}
	out := make([]rune, 0, len(name))
	for _, c := range name {
		if c == '"' || c == '\\' || c < 0x20 {
			c = '_'
		}
		out = append(out, c)
	}
	return string(out)
}

// listWizardSteps handles GET /api/v1/wizard/steps
//
// @Summary		List document creation wizard steps
// @Tags		documents
// @Produce		json
// @Success		200	{object}	ListResponse[WizardStepResponse]
// @Router		/api/v1/wizard/steps [get]
func (routes *Routes) listWizardSteps(w http.ResponseWriter, _ *http.Request) {
	steps := routes.service.ListWizardSteps()
	results := make([]WizardStepResponse, len(steps))
	for i, step := range steps {
		results[i] = WizardStepResponse{Name: step.Name(), Number: step.Number(), Label: step.Label()}
	}
	common.WriteJSONResponse(w, newListResponse(results), http.StatusOK)
}
