package http

import (
	"net/http"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
	"github.com/lockboxlabs/licenser/pkg/slogx"
)

// DirectoryHandler handles the application and customer master data
// endpoints.
type DirectoryHandler struct {
	Directory *service.DirectoryService
}

// HandleRegisterApplication handles POST /v1/applications.
func (h *DirectoryHandler) HandleRegisterApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.RegisterApplicationRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.Directory.RegisterApplication(ctx, req.AppID, req.Name, req.Publisher, req.Version); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// HandleListApplications handles GET /v1/applications.
func (h *DirectoryHandler) HandleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	apps, err := h.Directory.ListApplications(ctx)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	resp := licsdk.ListApplicationsResponse{Applications: make([]licsdk.ApplicationInfo, len(apps))}
	for i, app := range apps {
		resp.Applications[i] = licsdk.ApplicationInfo{
			AppID:     app.ID,
			Name:      app.Name,
			Publisher: app.Publisher,
			Version:   app.Version,
			CreatedAt: app.CreatedAt.Format(time.RFC3339),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRegisterCustomer handles POST /v1/customers.
func (h *DirectoryHandler) HandleRegisterCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req licsdk.RegisterCustomerRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.Directory.RegisterCustomer(ctx, req.CustomerNo, req.Name, req.Contact); err != nil {
		writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// HandleListCustomers handles GET /v1/customers.
func (h *DirectoryHandler) HandleListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	customers, err := h.Directory.ListCustomers(ctx)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	resp := licsdk.ListCustomersResponse{Customers: make([]licsdk.CustomerInfo, len(customers))}
	for i, c := range customers {
		resp.Customers[i] = licsdk.CustomerInfo{
			CustomerNo: c.No,
			Name:       c.Name,
			Contact:    c.Contact,
			CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
