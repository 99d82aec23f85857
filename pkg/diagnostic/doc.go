// Package diagnostic observes session activity and raises advisory anomalies
// for patterns that indicate identity leakage between users: session hijack,
// cross-user contamination, tenant context leak, and fingerprint collision.
//
// Every request records one or more Events; the Detector evaluates each
// event against a bounded window of recent activity using pure, threshold-
// driven rules. Detection is alerting only. It never blocks a request, and
// any enforcement decision belongs to the operator consuming the anomaly
// stream.
//
// Usage:
//
//	det := diagnostic.New(diagnostic.WithLogger(log))
//
//	anomalies := det.Record(diagnostic.Event{
//		SessionID: sid,
//		UserID:    userID,
//		IPAddress: clientip.GetIP(r),
//		Action:    diagnostic.ActionResolve,
//	})
//
// The ops surface exposes Summary for the read-only reporting endpoint and
// Anomalies for severity-filtered retrieval.
package diagnostic
