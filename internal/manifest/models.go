package manifest

import "time"

// RunStatus is the lifecycle state of a build run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// SplitStatus is the outcome recorded for one split of a run.
type SplitStatus string

const (
	SplitPending  SplitStatus = "pending"
	SplitComplete SplitStatus = "complete"
	SplitFailed   SplitStatus = "failed"
	SplitSkipped  SplitStatus = "skipped"
)

// Run is one invocation of the dataset builder.
type Run struct {
	ID           string
	ArchiveURL   string
	Seed         int64
	NumClasses   int
	Status       RunStatus
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// SplitRecord is the ledger entry for one split within a run.
type SplitRecord struct {
	ID               int64
	RunID            string
	Split            string
	Directory        string
	Requested        int
	Planned          int
	PlannedBytes     int64
	Downloaded       int
	ShortfallClasses int
	Status           SplitStatus
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Truncated reports whether the split stopped before all planned files were
// downloaded.
func (r SplitRecord) Truncated() bool {
	return r.Status == SplitFailed || (r.Status == SplitPending && r.Downloaded < r.Planned)
}
