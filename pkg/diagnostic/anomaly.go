package diagnostic

import "time"

// AnomalyType identifies the class of suspicious pattern a detector matched.
type AnomalyType string

const (
	AnomalySessionHijack          AnomalyType = "session_hijack"
	AnomalyCrossUserContamination AnomalyType = "cross_user_contamination"
	AnomalyTenantContextLeak      AnomalyType = "tenant_context_leak"
	AnomalyFingerprintCollision   AnomalyType = "fingerprint_collision"
)

// Severity orders anomalies by operational urgency.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Anomaly is an advisory finding. Detection never blocks requests; whether
// an anomaly triggers enforcement is an operator policy decision made on
// the emitted stream.
type Anomaly struct {
	Type          AnomalyType `json:"type"`
	Severity      Severity    `json:"severity"`
	AffectedUsers []string    `json:"affected_users"`
	Evidence      string      `json:"evidence"`
	Timestamp     time.Time   `json:"timestamp"`
}
