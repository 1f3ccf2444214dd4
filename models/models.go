package models

import "time"

// Severity classifies how dangerous an exposed secret is. It is a fixed
// property of the detection rule, never computed per match.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the sort position of a severity, critical first. Unknown
// severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

// JobStatus is the lifecycle state of a scan job. Completed and failed are
// terminal.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ScanMode selects which source provider backs a scan.
type ScanMode string

const (
	ModeLocal  ScanMode = "local"  // mirror clone, full history
	ModeRemote ScanMode = "remote" // hosting REST API, bounded history
)

// Finding is a single detected secret. Immutable once created.
type Finding struct {
	FilePath      string   `json:"file_path"`
	LineNumber    int      `json:"line_number"`
	SecretType    string   `json:"secret_type"`
	MaskedPreview string   `json:"masked_preview"`
	RawValue      string   `json:"raw_value"`
	CommitID      string   `json:"commit_id"`
	Author        string   `json:"author"`
	Timestamp     string   `json:"timestamp"`
	CommitMessage string   `json:"commit_message"`
	Branch        string   `json:"branch"`
	Severity      Severity `json:"severity"`
	Entropy       float64  `json:"entropy"`
}

// Summary aggregates the outcome of a completed scan.
type Summary struct {
	Total           int      `json:"total_findings"`
	Critical        int      `json:"critical"`
	High            int      `json:"high"`
	Medium          int      `json:"medium"`
	Low             int      `json:"low"`
	BranchesScanned int      `json:"branches_scanned"`
	CommitsScanned  int      `json:"commits_scanned"`
	TotalCommits    int      `json:"total_commits"`
	FilesScanned    int      `json:"files_scanned"`
	SecretTypes     []string `json:"secret_types"`
}

// ScanResult is the payload attached to a completed job.
type ScanResult struct {
	Summary  Summary   `json:"summary"`
	Findings []Finding `json:"findings"`
	RepoURL  string    `json:"repo_url"`
}

// ScanJob is a point-in-time snapshot of a job record as seen by pollers.
// The jobs store hands out copies, never the live record.
type ScanJob struct {
	ID        string      `json:"job_id"`
	RepoURL   string      `json:"git_url"`
	Mode      ScanMode    `json:"mode"`
	Status    JobStatus   `json:"status"`
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Result    *ScanResult `json:"results,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Summarize builds a Summary from an already deduplicated, sorted finding
// list plus the traversal counters collected by the orchestrator.
func Summarize(findings []Finding, branches, commitsScanned, totalCommits, files int) Summary {
	sum := Summary{
		Total:           len(findings),
		BranchesScanned: branches,
		CommitsScanned:  commitsScanned,
		TotalCommits:    totalCommits,
		FilesScanned:    files,
		SecretTypes:     []string{},
	}
	tally := CountBySeverity(findings)
	sum.Critical = tally[SeverityCritical]
	sum.High = tally[SeverityHigh]
	sum.Medium = tally[SeverityMedium]
	sum.Low = tally[SeverityLow]

	seen := make(map[string]struct{})
	for _, f := range findings {
		if _, ok := seen[f.SecretType]; !ok {
			seen[f.SecretType] = struct{}{}
			sum.SecretTypes = append(sum.SecretTypes, f.SecretType)
		}
	}
	return sum
}

// CountBySeverity tallies findings per severity tier.
func CountBySeverity(findings []Finding) map[Severity]int {
	tally := make(map[Severity]int)
	for _, f := range findings {
		tally[f.Severity]++
	}
	return tally
}
