package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
	"github.com/lockboxlabs/licenser/pkg/slogx"
)

// LicensesHandler handles license issuance, validation and lifecycle
// endpoints.
type LicensesHandler struct {
	Licenses *service.LicenseService
}

// HandleGenerate handles POST /v1/licenses.
func (h *LicensesHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.GenerateLicenseRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	id, err := h.Licenses.Generate(ctx, service.GenerateRequest{
		AppID:        req.AppID,
		CustomerName: req.CustomerName,
		ValidFrom:    parseWireDate(req.ValidFrom),
		ValidTo:      parseWireDate(req.ValidTo),
		Features:     req.Features,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, licsdk.GenerateLicenseResponse{LicenseID: id})
}

// HandleValidate handles POST /v1/licenses/{id}/validate.
func (h *LicensesHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	id := r.PathValue("id")

	res, err := h.Licenses.Validate(ctx, id)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licsdk.ValidateLicenseResponse{
		LicenseID:       id,
		Valid:           res.Valid,
		Result:          res.Result,
		EffectiveStatus: string(res.EffectiveStatus),
	})
}

// HandleGet handles GET /v1/licenses/{id}.
func (h *LicensesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	lic, err := h.Licenses.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licenseInfo(lic, time.Now().UTC()))
}

// HandleList handles GET /v1/licenses.
func (h *LicensesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	licenses, err := h.Licenses.List(ctx)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	now := time.Now().UTC()
	resp := licsdk.ListLicensesResponse{Licenses: make([]licsdk.LicenseInfo, len(licenses))}
	for i, lic := range licenses {
		resp.Licenses[i] = licenseInfo(lic, now)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRevoke handles POST /v1/licenses/{id}/revoke.
func (h *LicensesHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Licenses.Revoke(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSuspend handles POST /v1/licenses/{id}/suspend.
func (h *LicensesHandler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Licenses.Suspend(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResume handles POST /v1/licenses/{id}/resume.
func (h *LicensesHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Licenses.Resume(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport handles GET /v1/licenses/{id}/export. The response is the
// portable license file as a download.
func (h *LicensesHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	filename, data, err := h.Licenses.Export(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleExportToken handles GET /v1/licenses/{id}/token.
func (h *LicensesHandler) HandleExportToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	id := r.PathValue("id")

	token, err := h.Licenses.ExportToken(ctx, id)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licsdk.LicenseTokenResponse{LicenseID: id, Token: token})
}
