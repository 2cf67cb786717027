package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
	"github.com/lockboxlabs/licenser/pkg/slogx"
)

// DocumentsHandler handles the license document workflow endpoints.
type DocumentsHandler struct {
	Documents *service.DocumentService
}

// HandleCreate handles POST /v1/documents.
func (h *DocumentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.CreateDocumentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	no, err := h.Documents.Create(ctx, req.CustomerNo)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, licsdk.CreateDocumentResponse{DocumentNo: no})
}

// HandleGet handles GET /v1/documents/{no}.
func (h *DocumentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	doc, err := h.Documents.Get(ctx, r.PathValue("no"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, documentInfo(doc, time.Now().UTC()))
}

// HandleList handles GET /v1/documents.
func (h *DocumentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	docs, err := h.Documents.List(ctx)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	now := time.Now().UTC()
	resp := licsdk.ListDocumentsResponse{Documents: make([]licsdk.DocumentInfo, len(docs))}
	for i, doc := range docs {
		resp.Documents[i] = documentInfo(doc, now)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleAddLine handles POST /v1/documents/{no}/lines.
func (h *DocumentsHandler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	no := r.PathValue("no")

	var req licsdk.DocumentLineRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	lineNo, err := h.Documents.AddLine(ctx, no, lineInput(req))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, licsdk.AddLineResponse{DocumentNo: no, LineNo: lineNo})
}

// HandleUpdateLine handles PUT /v1/documents/{no}/lines/{lineNo}.
func (h *DocumentsHandler) HandleUpdateLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	lineNo, ok := parseLineNo(w, r)
	if !ok {
		return
	}

	var req licsdk.DocumentLineRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.Documents.UpdateLine(ctx, r.PathValue("no"), lineNo, lineInput(req)); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteLine handles DELETE /v1/documents/{no}/lines/{lineNo}.
func (h *DocumentsHandler) HandleDeleteLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	lineNo, ok := parseLineNo(w, r)
	if !ok {
		return
	}

	if err := h.Documents.DeleteLine(ctx, r.PathValue("no"), lineNo); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRelease handles POST /v1/documents/{no}/release.
func (h *DocumentsHandler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.ReleaseDocumentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.Documents.Release(ctx, r.PathValue("no"), req.Actor); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReopen handles POST /v1/documents/{no}/reopen.
func (h *DocumentsHandler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Documents.Reopen(ctx, r.PathValue("no")); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleArchive handles POST /v1/documents/{no}/archive.
func (h *DocumentsHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Documents.Archive(ctx, r.PathValue("no")); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func lineInput(req licsdk.DocumentLineRequest) service.LineInput {
	return service.LineInput{
		AppID:     req.AppID,
		StartDate: parseWireDate(req.StartDate),
		EndDate:   parseWireDate(req.EndDate),
		Features:  req.Features,
	}
}

func parseLineNo(w http.ResponseWriter, r *http.Request) (int, bool) {
	lineNo, err := strconv.Atoi(r.PathValue("lineNo"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			licsdk.ErrorCodeInvalidRequest, "Line number must be an integer")
		return 0, false
	}
	return lineNo, true
}
