package diagnostic

import "time"

// Action labels what a session did at the moment the event was captured.
type Action string

const (
	ActionCacheHit            Action = "cache_hit"
	ActionCacheMiss           Action = "cache_miss"
	ActionFingerprintMismatch Action = "fingerprint_mismatch"
	ActionResolve             Action = "resolve"
	ActionSwitchAttempt       Action = "switch_attempt"
	ActionSwitchCommitted     Action = "switch_committed"
	ActionSwitchDenied        Action = "switch_denied"
	ActionSwitchRejected      Action = "switch_rejected"
)

// Event is a single observation of session activity. Events are cheap to
// produce and are recorded on every request, so they carry only identifiers,
// never payload data.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	TenantID    string    `json:"tenant_id,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Path        string    `json:"path,omitempty"`
	Action      Action    `json:"action"`
}

// isSwitch reports whether the event is part of a tenant switch, which
// legitimately moves a tenant across users' recent activity.
func (e Event) isSwitch() bool {
	switch e.Action {
	case ActionSwitchAttempt, ActionSwitchCommitted, ActionSwitchDenied, ActionSwitchRejected:
		return true
	}
	return false
}
