package handler

import (
	"net/http"

	"tour-booking-api/internal/query"
	"tour-booking-api/internal/service"
)

// AuditHandler lets admins page through the security trail with the same
// query syntax as the other collections.
type AuditHandler struct {
	audit *service.AuditService
	opts  query.Options
}

func NewAuditHandler(audit *service.AuditService, opts query.Options) *AuditHandler {
	return &AuditHandler{audit: audit, opts: opts}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Parse(r.URL.Query(), h.opts)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	entries, err := h.audit.List(r.Context(), spec)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeList(w, "entries", entries, len(entries))
}
