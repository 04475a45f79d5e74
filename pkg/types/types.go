// Package types holds the wire and record shapes shared across the store,
// learner, queue, and capture pipeline. Nothing in this package touches I/O;
// it is the vocabulary the rest of the module is written against.
package types

import (
	"fmt"
	"time"
)

// SchemaVersion is embedded in the self-describing records (outcomes and
// capture results, which are stored as job results) so readers can reject
// formats they don't understand rather than silently degrading. Dead-letter
// records carry no schema version.
const SchemaVersion = 1

// HeadlessKind selects how the browser session launches Chrome.
type HeadlessKind int

const (
	HeadlessShell HeadlessKind = iota
	HeadlessNew
	HeadlessLegacy
	HeadlessVisible
)

func (k HeadlessKind) String() string {
	switch k {
	case HeadlessShell:
		return "shell"
	case HeadlessNew:
		return "new-headless"
	case HeadlessLegacy:
		return "legacy-headless"
	case HeadlessVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// ParseHeadlessKind parses the string forms used in stored configurations.
func ParseHeadlessKind(s string) (HeadlessKind, error) {
	switch s {
	case "shell":
		return HeadlessShell, nil
	case "new-headless":
		return HeadlessNew, nil
	case "legacy-headless":
		return HeadlessLegacy, nil
	case "visible":
		return HeadlessVisible, nil
	default:
		return 0, fmt.Errorf("unknown headless kind %q", s)
	}
}

// WaitStrategy controls when navigation is considered complete.
type WaitStrategy int

const (
	WaitNetworkIdle WaitStrategy = iota
	WaitDOMContentLoaded
	WaitLoad
)

func (w WaitStrategy) String() string {
	switch w {
	case WaitNetworkIdle:
		return "networkidle"
	case WaitDOMContentLoaded:
		return "domcontentloaded"
	case WaitLoad:
		return "load"
	default:
		return "unknown"
	}
}

// ParseWaitStrategy parses the string forms used in stored configurations.
func ParseWaitStrategy(s string) (WaitStrategy, error) {
	switch s {
	case "networkidle":
		return WaitNetworkIdle, nil
	case "domcontentloaded":
		return WaitDOMContentLoaded, nil
	case "load":
		return WaitLoad, nil
	default:
		return 0, fmt.Errorf("unknown wait strategy %q", s)
	}
}

// Configuration is a named bundle of browser tunables considered as one arm
// by the domain learner. Everything but the counters is immutable once
// created; counters are monotonically non-decreasing.
type Configuration struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	HeadlessKind HeadlessKind `json:"headless_kind"`
	ViewportW    int          `json:"viewport_w"`
	ViewportH    int          `json:"viewport_h"`
	UserAgent    string       `json:"user_agent"`
	Stealth      bool         `json:"stealth"`
	WaitStrategy WaitStrategy `json:"wait_strategy"`
	TimeoutMS    int          `json:"timeout_ms"`
	Attempts     int64        `json:"attempts"`
	Successes    int64        `json:"successes"`
	LastSuccess  *time.Time   `json:"last_success,omitempty"`
	LastFailure  *time.Time   `json:"last_failure,omitempty"`
}

// SuccessRate returns successes / max(1, attempts), per the spec's derived field.
func (c *Configuration) SuccessRate() float64 {
	denom := c.Attempts
	if denom < 1 {
		denom = 1
	}
	return float64(c.Successes) / float64(denom)
}

// Valid reports whether the counters respect attempts >= successes >= 0.
func (c *Configuration) Valid() bool {
	return c.Successes >= 0 && c.Attempts >= c.Successes
}

// DomainRecord is the per-registrable-domain learning state.
type DomainRecord struct {
	Domain       string    `json:"domain"`
	BestConfigID int64     `json:"best_config_id"`
	Confidence   float64   `json:"confidence"`
	MinDelayMS   int       `json:"min_delay_ms"`
	MaxPerMinute int       `json:"max_per_minute"`
	BlockTags    []string  `json:"block_tags,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	LastUpdated  time.Time `json:"last_updated"`
	SampleCount  int64     `json:"sample_count"`
}

// Result is the typed classification a completed attempt is assigned.
type Result string

const (
	ResultOK         Result = "ok"
	ResultBlocked    Result = "blocked"
	ResultCaptcha    Result = "captcha"
	ResultTimeout    Result = "timeout"
	ResultRateLimited Result = "rate_limited"
	ResultEmpty      Result = "empty"
	ResultError      Result = "error"
)

// Known block attribution tags. The set is data, not code: the validator's
// pattern table can name any string here, these are just the ones spec.md
// calls out by name.
const (
	BlockCloudfront = "cloudfront"
	BlockCloudflare = "cloudflare"
	BlockPerimeterX = "perimeterx"
	BlockDatadome   = "datadome"
	BlockAkamai     = "akamai"
	BlockImperva    = "imperva"
	BlockCaptcha    = "captcha"
	BlockRateLimit  = "rate-limit"
)

// Outcome is one row per completed attempt. Append-only: once written,
// Result and ConfigID never change.
type Outcome struct {
	SchemaVersion int       `json:"schema_version"`
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"ts"`
	Domain        string    `json:"domain"`
	URL           string    `json:"url"`
	ConfigID      int64     `json:"config_id"`
	HourOfDay     int       `json:"hour"`
	Weekday       int       `json:"weekday"`
	RecentRate    float64   `json:"recent_request_rate"`
	Result        Result    `json:"result"`
	BlockService  string    `json:"block_service,omitempty"`
	HTTPStatus    int       `json:"http_status"`
	ResponseMS    int64     `json:"response_ms"`
	ContentLength int64     `json:"content_length"`
	PageTitle     string    `json:"page_title"`
}

// NewOutcome stamps the request-context fields (hour, weekday) from ts and
// fills schema_version, leaving the caller to set the rest.
func NewOutcome(ts time.Time) Outcome {
	return Outcome{
		SchemaVersion: SchemaVersion,
		Timestamp:     ts,
		HourOfDay:     ts.Hour(),
		Weekday:       int(ts.Weekday()),
	}
}

// SimilarityKind is the dimension along which two domains are compared.
type SimilarityKind string

const (
	SimilarityTLD        SimilarityKind = "tld"
	SimilarityTechnology SimilarityKind = "technology"
	SimilarityBehavior   SimilarityKind = "behavior"
)

// SimilarityEdge is a weighted, directionless edge used only for cold start.
type SimilarityEdge struct {
	DomainA string         `json:"domain_a"`
	DomainB string         `json:"domain_b"`
	Score   float64        `json:"score"`
	Kind    SimilarityKind `json:"kind"`
}

// JobStatus is the lifecycle state of a durable job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
	JobDead    JobStatus = "dead"
)

// JobType is a closed set of recognized job kinds.
type JobType string

const (
	JobTypeCapture JobType = "capture"
	JobTypeScrape  JobType = "scrape"
)

// Job is a durable unit of work dispatched by the queue.
type Job struct {
	ID            int64      `json:"id"`
	Queue         string     `json:"queue"`
	Type          JobType    `json:"type"`
	Payload       []byte     `json:"payload"`
	Priority      int        `json:"priority"`
	Status        JobStatus  `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	LastError     string     `json:"last_error,omitempty"`
	Result        []byte     `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AvailableAt   time.Time  `json:"available_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LockedBy      string     `json:"locked_by,omitempty"`
	LockedAt      *time.Time `json:"locked_at,omitempty"`
	LeaseDeadline *time.Time `json:"lease_deadline,omitempty"`
	DependsOn     *int64     `json:"depends_on,omitempty"`
}

// Claimed reports whether the job is currently owned by a worker.
func (j *Job) Claimed() bool {
	return j.Status == JobRunning && j.LockedBy != ""
}

// DeadLetterRecord is a snapshot of a job that exceeded max_attempts.
type DeadLetterRecord struct {
	ID       int64     `json:"id"`
	JobID    int64     `json:"job_id"`
	Queue    string    `json:"queue"`
	Payload  []byte    `json:"payload"`
	Error    string    `json:"error"`
	Attempts int       `json:"attempts"`
	DiedAt   time.Time `json:"died_at"`
	Revived  bool      `json:"revived"`
}

// ArtifactKind enumerates the capture outputs a pipeline run may emit.
type ArtifactKind string

const (
	ArtifactScreenshot ArtifactKind = "screenshot"
	ArtifactPDF        ArtifactKind = "pdf"
	ArtifactHTML       ArtifactKind = "html"
	ArtifactWARC       ArtifactKind = "warc"
)

// ValidationResult is the response validator's classification of a page load.
type ValidationResult struct {
	Result  Result `json:"result"`
	Service string `json:"service,omitempty"`
}

// CaptureResult is the structured, always-returned outcome of one capture
// pipeline run, per spec §4.5 step 9.
type CaptureResult struct {
	SchemaVersion int                     `json:"schema_version"`
	Success       bool                    `json:"success"`
	Validation    ValidationResult        `json:"validation"`
	Artifacts     map[ArtifactKind]string `json:"artifacts,omitempty"`
	Title         string                  `json:"title"`
	Status        int                     `json:"status"`
	ContentLength int64                   `json:"content_length"`
	DurationMS    int64                   `json:"duration_ms"`
	Error         string                  `json:"error,omitempty"`
}

// BehaviorStats is the aggregate report returned by the behavior runner.
type BehaviorStats struct {
	Counts    map[string]int `json:"counts"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Truncated []string       `json:"truncated,omitempty"`
}

// ArmStats is one configuration's weighted success/failure tally as seen by
// the domain learner, after time decay has been applied.
type ArmStats struct {
	ConfigID  int64
	Successes float64
	Failures  float64
	LastSeen  time.Time
}

// Observations returns the total weighted observation count for this arm.
func (a ArmStats) Observations() float64 {
	return a.Successes + a.Failures
}

// DriftSignal reports a detected regression for a domain.
type DriftSignal struct {
	Domain          string `json:"domain"`
	Drift           bool   `json:"drift"`
	NewBlock        bool   `json:"new_block"`
	NewBlockService string `json:"new_block_service,omitempty"`
}
