// Package litigation models the read-only case corpus the pipeline consumes.
package litigation

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/CaseIntel/pkg/types/common"
)

// CaseRecord is a reported case as stored by the research backend.  The
// pipeline never writes it.
type CaseRecord struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Plaintiffs  string     `json:"plaintiffs"`
	Defendants  string     `json:"defendants"`
	Parties     string     `json:"parties"`
	Summary     string     `json:"summary"`
	Judgement   string     `json:"judgement"`
	Conclusion  string     `json:"conclusion"`
	Headnotes   string     `json:"headnotes"`
	AreaOfLaw   string     `json:"area_of_law"`
	Date        *time.Time `json:"date,omitempty"`
	ClaimAmount string     `json:"claim_amount"`
	AwardAmount string     `json:"award_amount"`
}

// Field names used in logs and mentions.
const (
	FieldTitle      = "title"
	FieldPlaintiffs = "plaintiffs"
	FieldDefendants = "defendants"
	FieldParties    = "parties"
	FieldSummary    = "summary"
	FieldJudgement  = "judgement"
	FieldConclusion = "conclusion"
	FieldHeadnotes  = "headnotes"
)

// TextField is one named free-text field of a case.
type TextField struct {
	Name string
	Text string
}

// TextFields returns the party and body fields scanned for mentions, in a
// fixed order.
func (c *CaseRecord) TextFields() []TextField {
	return []TextField{
		{FieldTitle, c.Title},
		{FieldPlaintiffs, c.Plaintiffs},
		{FieldDefendants, c.Defendants},
		{FieldParties, c.Parties},
		{FieldSummary, c.Summary},
		{FieldJudgement, c.Judgement},
		{FieldConclusion, c.Conclusion},
		{FieldHeadnotes, c.Headnotes},
	}
}

// OutcomeText is the text the outcome rules run over: judgement and
// conclusion, or the summary when both are blank.
func (c *CaseRecord) OutcomeText() string {
	text := strings.TrimSpace(c.Judgement + "\n" + c.Conclusion)
	if text == "" {
		return strings.TrimSpace(c.Summary)
	}
	return text
}

// SubjectText is the text the subject-matter keywords run over.
func (c *CaseRecord) SubjectText() string {
	return strings.Join([]string{c.AreaOfLaw, c.Headnotes, c.Title, c.Summary}, "\n")
}

// CaseReader is the read-only view of the case corpus.
type CaseReader interface {
	// Get returns ErrCodeCaseNotFound when id does not exist.
	Get(ctx context.Context, id int64) (*CaseRecord, error)

	// Scan returns the next page of cases ordered by id.  An empty page marks
	// the end of the corpus.
	Scan(ctx context.Context, page common.PageRequest) ([]*CaseRecord, error)

	// FindByNames returns every case whose party or body fields contain any
	// of names, case-insensitively, ordered by id.
	FindByNames(ctx context.Context, names []string) ([]*CaseRecord, error)
}

//Personal.AI order the ending
