package authflow

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leaddesk/authkit/pkg/diagnostic"
	"github.com/leaddesk/authkit/pkg/sessionstore"
	"github.com/leaddesk/authkit/pkg/switcher"
)

type switchRequest struct {
	TenantID string `json:"tenant_id"`
}

// SwitchHandler serves tenant-switch requests for the authenticated
// principal. A denied lock maps to 409 so the client can retry; a failed
// validation maps to 403 and must not be retried; an unreachable store maps
// to 503 because switches fail closed.
func SwitchHandler(coord *switcher.Coordinator) http.HandlerFunc {
	if coord == nil {
		panic("authflow: nil coordinator")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p := PrincipalFromContext(ctx)
		cache := CacheFromContext(ctx)
		if p == nil || cache == nil {
			writeError(w, http.StatusUnauthorized, "authentication_failed")
			return
		}

		var req switchRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil || req.TenantID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}

		rec := recorderFromContext(ctx)
		if rec != nil {
			rec.setTenant(req.TenantID)
			rec.record(diagnostic.ActionSwitchAttempt)
		}

		record, err := coord.Switch(ctx, cache, p, req.TenantID)
		switch {
		case err == nil:
			if rec != nil {
				rec.record(diagnostic.ActionSwitchCommitted)
			}
			writeJSON(w, http.StatusOK, record)
		case errors.Is(err, switcher.ErrLockDenied):
			if rec != nil {
				rec.record(diagnostic.ActionSwitchDenied)
			}
			writeError(w, http.StatusConflict, "switch_in_progress")
		case errors.Is(err, switcher.ErrValidationFailed):
			if rec != nil {
				rec.record(diagnostic.ActionSwitchRejected)
			}
			writeError(w, http.StatusForbidden, "tenant_not_accessible")
		case errors.Is(err, sessionstore.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "store_unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "switch_failed")
		}
	}
}

// ReportHandler serves the read-only operational summary. Only super admins
// may read it. Live session counts come from the store when it is reachable;
// the detector's view is the fallback.
func ReportHandler(det *diagnostic.Detector, store sessionstore.Store) http.HandlerFunc {
	if det == nil {
		panic("authflow: nil detector")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p == nil || !p.IsSuperAdmin() {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		report := det.Summary()
		if store != nil {
			if records, err := store.ListActiveSessions(r.Context()); err == nil {
				report.TotalSessions = len(records)
			}
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
