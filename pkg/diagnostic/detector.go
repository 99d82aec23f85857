package diagnostic

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Config tunes the detection heuristics. The defaults mirror observed attack
// patterns but carry no load-tested guarantee; treat them as starting points.
type Config struct {
	// WindowSize bounds the in-memory event ring the detectors scan over.
	WindowSize int `env:"DIAG_WINDOW_SIZE" envDefault:"5000"`
	// HijackAddrUsers is how many distinct users one network address must
	// present within HijackAddrWindow before it is flagged.
	HijackAddrUsers     int           `env:"DIAG_HIJACK_ADDR_USERS" envDefault:"3"`
	HijackAddrWindow    time.Duration `env:"DIAG_HIJACK_ADDR_WINDOW" envDefault:"2m"`
	ContaminationWindow time.Duration `env:"DIAG_CONTAMINATION_WINDOW" envDefault:"30s"`
	TenantLeakWindow    time.Duration `env:"DIAG_TENANT_LEAK_WINDOW" envDefault:"10s"`
	FingerprintWindow   time.Duration `env:"DIAG_FINGERPRINT_WINDOW" envDefault:"60s"`
	// AnomalyLogSize bounds the retained anomaly history.
	AnomalyLogSize int `env:"DIAG_ANOMALY_LOG_SIZE" envDefault:"200"`
}

// DefaultConfig returns the heuristic defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:          5000,
		HijackAddrUsers:     3,
		HijackAddrWindow:    2 * time.Minute,
		ContaminationWindow: 30 * time.Second,
		TenantLeakWindow:    10 * time.Second,
		FingerprintWindow:   60 * time.Second,
		AnomalyLogSize:      200,
	}
}

// Detector ingests session events and evaluates each one against the bounded
// window of recent activity. It is safe for concurrent use.
type Detector struct {
	mu sync.Mutex

	cfg       Config
	events    []Event
	head      int
	anomalies []Anomaly

	// sessionOwner tracks the most recent user seen per session; a write
	// that changes an existing mapping is itself the primary hijack signal.
	sessionOwner map[string]string
	userSessions map[string]map[string]struct{}

	startedAt time.Time
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger anomalies are reported through.
func WithLogger(log *slog.Logger) Option {
	return func(d *Detector) {
		if log != nil {
			d.log = log
		}
	}
}

// WithConfig overrides the default thresholds.
func WithConfig(cfg Config) Option {
	return func(d *Detector) {
		if cfg.WindowSize > 0 {
			d.cfg = cfg
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Detector with default thresholds.
func New(opts ...Option) *Detector {
	d := &Detector{
		cfg:          DefaultConfig(),
		sessionOwner: make(map[string]string),
		userSessions: make(map[string]map[string]struct{}),
		log:          slog.New(slog.DiscardHandler),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.startedAt = d.now()
	return d
}

// Record ingests one event, runs every detector against the recent window,
// and returns the anomalies the event triggered. Recording never fails and
// never blocks the request that produced the event.
func (d *Detector) Record(e Event) []Anomaly {
	d.mu.Lock()

	if e.Timestamp.IsZero() {
		e.Timestamp = d.now()
	}

	var found []Anomaly
	found = append(found, d.detectContamination(e)...)
	found = append(found, d.detectHijack(e)...)
	found = append(found, d.detectTenantLeak(e)...)
	found = append(found, d.detectFingerprintCollision(e)...)

	d.push(e)
	d.index(e)

	d.anomalies = append(d.anomalies, found...)
	if n := len(d.anomalies) - d.cfg.AnomalyLogSize; n > 0 {
		d.anomalies = d.anomalies[n:]
	}
	d.mu.Unlock()

	for _, a := range found {
		d.log.Warn("session anomaly detected",
			slog.String("type", string(a.Type)),
			slog.String("severity", a.Severity.String()),
			slog.Any("affected_users", a.AffectedUsers),
			slog.String("evidence", a.Evidence),
		)
	}
	return found
}

// Anomalies returns the retained anomalies at or above the given severity,
// newest last.
func (d *Detector) Anomalies(min Severity) []Anomaly {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Anomaly, 0, len(d.anomalies))
	for _, a := range d.anomalies {
		if a.Severity >= min {
			out = append(out, a)
		}
	}
	return out
}

// SystemInfo describes the detector process for the ops report.
type SystemInfo struct {
	GoVersion     string    `json:"go_version"`
	NumGoroutine  int       `json:"num_goroutine"`
	EventsTracked int       `json:"events_tracked"`
	StartedAt     time.Time `json:"started_at"`
}

// Report is the read-only operational summary.
type Report struct {
	TotalSessions int        `json:"total_sessions"`
	ActiveUsers   int        `json:"active_users"`
	Anomalies     []Anomaly  `json:"anomalies"`
	SystemInfo    SystemInfo `json:"system_info"`
}

// Summary builds the operational report, including at most the 50 most
// recent anomalies.
func (d *Detector) Summary() Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	recent := d.anomalies
	if len(recent) > 50 {
		recent = recent[len(recent)-50:]
	}
	anomalies := make([]Anomaly, len(recent))
	copy(anomalies, recent)

	return Report{
		TotalSessions: len(d.sessionOwner),
		ActiveUsers:   len(d.userSessions),
		Anomalies:     anomalies,
		SystemInfo: SystemInfo{
			GoVersion:     runtime.Version(),
			NumGoroutine:  runtime.NumGoroutine(),
			EventsTracked: len(d.events),
			StartedAt:     d.startedAt,
		},
	}
}

// detectContamination flags a different user observed against a session that
// another user touched within the contamination window. This is the pattern
// a shared mutable cache produces and is treated as critical.
func (d *Detector) detectContamination(e Event) []Anomaly {
	if e.SessionID == "" || e.UserID == "" {
		return nil
	}
	prev, ok := d.sessionOwner[e.SessionID]
	if !ok || prev == e.UserID {
		return nil
	}
	last, ok := d.lastSessionEvent(e.SessionID)
	if !ok || e.Timestamp.Sub(last.Timestamp) > d.cfg.ContaminationWindow {
		return nil
	}
	return []Anomaly{{
		Type:          AnomalyCrossUserContamination,
		Severity:      SeverityCritical,
		AffectedUsers: []string{prev, e.UserID},
		Evidence: fmt.Sprintf("session %s seen for user %s %.0fs after user %s",
			e.SessionID, e.UserID, e.Timestamp.Sub(last.Timestamp).Seconds(), prev),
		Timestamp: e.Timestamp,
	}}
}

// detectHijack flags a session changing owner at any distance, and a single
// network address presenting too many distinct users inside the window.
func (d *Detector) detectHijack(e Event) []Anomaly {
	var out []Anomaly

	if e.SessionID != "" && e.UserID != "" {
		if prev, ok := d.sessionOwner[e.SessionID]; ok && prev != e.UserID {
			out = append(out, Anomaly{
				Type:          AnomalySessionHijack,
				Severity:      SeverityHigh,
				AffectedUsers: []string{prev, e.UserID},
				Evidence:      fmt.Sprintf("session %s changed owner from %s to %s", e.SessionID, prev, e.UserID),
				Timestamp:     e.Timestamp,
			})
		}
	}

	if e.IPAddress != "" && e.UserID != "" {
		users := map[string]struct{}{e.UserID: {}}
		for _, w := range d.events {
			if w.IPAddress == e.IPAddress && w.UserID != "" &&
				e.Timestamp.Sub(w.Timestamp) <= d.cfg.HijackAddrWindow {
				users[w.UserID] = struct{}{}
			}
		}
		if len(users) >= d.cfg.HijackAddrUsers {
			affected := make([]string, 0, len(users))
			for u := range users {
				affected = append(affected, u)
			}
			out = append(out, Anomaly{
				Type:          AnomalySessionHijack,
				Severity:      SeverityHigh,
				AffectedUsers: affected,
				Evidence: fmt.Sprintf("%d distinct users from address %s within %s",
					len(users), e.IPAddress, d.cfg.HijackAddrWindow),
				Timestamp: e.Timestamp,
			})
		}
	}
	return out
}

// detectTenantLeak flags two different users touching the same tenant within
// the leak window when neither side is part of a tenant switch.
func (d *Detector) detectTenantLeak(e Event) []Anomaly {
	if e.TenantID == "" || e.UserID == "" || e.isSwitch() {
		return nil
	}
	for _, w := range d.events {
		if w.TenantID == e.TenantID && w.UserID != "" && w.UserID != e.UserID &&
			!w.isSwitch() && e.Timestamp.Sub(w.Timestamp) <= d.cfg.TenantLeakWindow {
			return []Anomaly{{
				Type:          AnomalyTenantContextLeak,
				Severity:      SeverityHigh,
				AffectedUsers: []string{w.UserID, e.UserID},
				Evidence: fmt.Sprintf("tenant %s accessed by %s and %s within %s",
					e.TenantID, w.UserID, e.UserID, d.cfg.TenantLeakWindow),
				Timestamp: e.Timestamp,
			}}
		}
	}
	return nil
}

// detectFingerprintCollision flags two different users presenting an
// identical client fingerprint within the window. The fingerprint is a weak
// hash, so a collision is a signal rather than proof.
func (d *Detector) detectFingerprintCollision(e Event) []Anomaly {
	if e.Fingerprint == "" || e.UserID == "" {
		return nil
	}
	for _, w := range d.events {
		if w.Fingerprint == e.Fingerprint && w.UserID != "" && w.UserID != e.UserID &&
			e.Timestamp.Sub(w.Timestamp) <= d.cfg.FingerprintWindow {
			return []Anomaly{{
				Type:          AnomalyFingerprintCollision,
				Severity:      SeverityMedium,
				AffectedUsers: []string{w.UserID, e.UserID},
				Evidence: fmt.Sprintf("fingerprint %s shared by %s and %s within %s",
					e.Fingerprint, w.UserID, e.UserID, d.cfg.FingerprintWindow),
				Timestamp: e.Timestamp,
			}}
		}
	}
	return nil
}

func (d *Detector) lastSessionEvent(sessionID string) (Event, bool) {
	var last Event
	var found bool
	for _, w := range d.events {
		if w.SessionID == sessionID && (!found || w.Timestamp.After(last.Timestamp)) {
			last, found = w, true
		}
	}
	return last, found
}

func (d *Detector) push(e Event) {
	if len(d.events) < d.cfg.WindowSize {
		d.events = append(d.events, e)
		return
	}
	d.events[d.head] = e
	d.head = (d.head + 1) % d.cfg.WindowSize
}

func (d *Detector) index(e Event) {
	if e.SessionID == "" || e.UserID == "" {
		return
	}
	d.sessionOwner[e.SessionID] = e.UserID
	sessions, ok := d.userSessions[e.UserID]
	if !ok {
		sessions = make(map[string]struct{})
		d.userSessions[e.UserID] = sessions
	}
	sessions[e.SessionID] = struct{}{}
}
