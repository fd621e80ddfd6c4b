package service

import "sync/atomic"

// Metrics are process wide counters exposed on the debug endpoint.
type Metrics struct {
	AnalysesRun       int64 `json:"analyses_run"`
	AnalysisFailures  int64 `json:"analysis_failures"`
	IssuesFound       int64 `json:"issues_found"`
	ReportsStored     int64 `json:"reports_stored"`
	ArtifactsReceived int64 `json:"artifacts_received"`
}

var globalMetrics = &Metrics{}

func RecordAnalysis(issues int) {
	atomic.AddInt64(&globalMetrics.AnalysesRun, 1)
	atomic.AddInt64(&globalMetrics.IssuesFound, int64(issues))
}

func RecordAnalysisFailure() {
	atomic.AddInt64(&globalMetrics.AnalysisFailures, 1)
}

func RecordReportStored() {
	atomic.AddInt64(&globalMetrics.ReportsStored, 1)
}

func RecordArtifactReceived() {
	atomic.AddInt64(&globalMetrics.ArtifactsReceived, 1)
}

// GetMetrics returns a consistent snapshot of the counters.
func GetMetrics() Metrics {
	return Metrics{
		AnalysesRun:       atomic.LoadInt64(&globalMetrics.AnalysesRun),
		AnalysisFailures:  atomic.LoadInt64(&globalMetrics.AnalysisFailures),
		IssuesFound:       atomic.LoadInt64(&globalMetrics.IssuesFound),
		ReportsStored:     atomic.LoadInt64(&globalMetrics.ReportsStored),
		ArtifactsReceived: atomic.LoadInt64(&globalMetrics.ArtifactsReceived),
	}
}
