package http

import (
	"net/http"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
	"github.com/lockboxlabs/licenser/pkg/slogx"
)

// KeysHandler handles the key lifecycle endpoints.
type KeysHandler struct {
	Keys *service.KeyService
}

// HandleGenerate handles POST /v1/keys.
func (h *KeysHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.GenerateKeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t := parseWireDate(req.ExpiresAt)
		expiresAt = &t
	}

	err := h.Keys.GenerateKeyPair(ctx, req.KeyID, domain.KeyType(req.Type), expiresAt, req.CreatedBy)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleImport handles POST /v1/keys/import.
func (h *KeysHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.ImportCertificateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	keyID, err := h.Keys.ImportCertificate(ctx, req.Certificate, req.Password, req.CreatedBy)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, licsdk.ImportCertificateResponse{KeyID: keyID})
}

// HandleRotate handles POST /v1/keys/rotate.
func (h *KeysHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.RotateKeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t := parseWireDate(req.ExpiresAt)
		expiresAt = &t
	}

	keyID, err := h.Keys.RotateSigningKey(ctx, expiresAt, req.Actor)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, licsdk.RotateKeyResponse{KeyID: keyID})
}

// HandleList handles GET /v1/keys.
func (h *KeysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	keys, err := h.Keys.ListKeys(ctx)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	resp := licsdk.ListKeysResponse{Keys: make([]licsdk.KeyInfo, len(keys))}
	for i, key := range keys {
		resp.Keys[i] = keyInfo(key)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandlePublicKey handles GET /v1/keys/{id}/public.
func (h *KeysHandler) HandlePublicKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	key, err := h.Keys.Key(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, licsdk.PublicKeyResponse{
		KeyID:        key.ID,
		Algorithm:    key.Algorithm,
		PublicKeyPEM: string(key.PublicKeyPEM),
	})
}

// HandleDeactivate handles POST /v1/keys/{id}/deactivate.
func (h *KeysHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.Keys.DeactivateKey(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/keys/{id}. Requires ?confirm=true.
func (h *KeysHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	confirm := r.URL.Query().Get("confirm") == "true"
	if err := h.Keys.DeleteKey(ctx, r.PathValue("id"), confirm); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
