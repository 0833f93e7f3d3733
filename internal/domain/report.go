package domain

import "time"

// Operation names a mutation.
type Operation string

const (
	OpAdd    Operation = "add"
	OpEdit   Operation = "edit"
	OpDelete Operation = "delete"
)

// Step is one stage of a mutation. Only StepRecord is fatal.
type Step string

const (
	StepRecord  Step = "record"
	StepCoupons Step = "coupons"
	StepMedia   Step = "media"
	StepStats   Step = "stats"
	StepCache   Step = "cache"
	StepList    Step = "list"
	StepEvents  Step = "events"
)

// ReportItem is one attachment write that failed.
type ReportItem struct {
	Step     Step     `json:"step"`
	Action   string   `json:"action"`
	TargetID string   `json:"targetId,omitempty"`
	Tag      MediaTag `json:"tag,omitempty"`
	Error    string   `json:"error"`
}

// MutationReport records what happened to a record's attachments during one
// mutation. A saved record may carry failed items.
type MutationReport struct {
	ID             string       `json:"id"`
	Operation      Operation    `json:"operation"`
	RecordID       string       `json:"recordId"`
	RecordType     SponsorType  `json:"recordType"`
	MediaUploaded  int          `json:"mediaUploaded"`
	MediaDeleted   int          `json:"mediaDeleted"`
	CouponsCreated int          `json:"couponsCreated"`
	CouponsUpdated int          `json:"couponsUpdated"`
	CouponsDeleted int          `json:"couponsDeleted"`
	Failures       []ReportItem `json:"failures"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// NewMutationReport starts a report for one operation on a record.
func NewMutationReport(op Operation, v SponsorData, now time.Time) *MutationReport {
	return &MutationReport{
		ID:         NewID(),
		Operation:  op,
		RecordID:   v.ID,
		RecordType: v.Type,
		Failures:   []ReportItem{},
		CreatedAt:  now.UTC(),
	}
}

// Fail appends a failed item.
func (r *MutationReport) Fail(item ReportItem) {
	r.Failures = append(r.Failures, item)
}

// HasFailures reports whether any attachment write failed.
func (r *MutationReport) HasFailures() bool {
	return len(r.Failures) > 0
}
