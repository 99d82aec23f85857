package authflow

import (
	"context"
	"sync"

	"github.com/leaddesk/authkit/pkg/diagnostic"
)

// eventRecorder adapts the anomaly detector to the cache's Recorder
// interface, stamping every event with the request's identity. The user ID
// is set once the principal resolves, so cache events before authentication
// carry only session-level identifiers.
type eventRecorder struct {
	det *diagnostic.Detector

	mu   sync.Mutex
	base diagnostic.Event
}

func newEventRecorder(det *diagnostic.Detector, base diagnostic.Event) *eventRecorder {
	return &eventRecorder{det: det, base: base}
}

func (r *eventRecorder) setUser(userID string) {
	r.mu.Lock()
	r.base.UserID = userID
	r.mu.Unlock()
}

func (r *eventRecorder) setTenant(tenantID string) {
	r.mu.Lock()
	r.base.TenantID = tenantID
	r.mu.Unlock()
}

func (r *eventRecorder) record(action diagnostic.Action) {
	r.mu.Lock()
	e := r.base
	r.mu.Unlock()
	e.Action = action
	r.det.Record(e)
}

func (r *eventRecorder) CacheHit(context.Context, string, string) {
	r.record(diagnostic.ActionCacheHit)
}

func (r *eventRecorder) CacheMiss(context.Context, string, string) {
	r.record(diagnostic.ActionCacheMiss)
}

func (r *eventRecorder) FingerprintMismatch(context.Context, string, string) {
	r.record(diagnostic.ActionFingerprintMismatch)
}
