package journal

import (
	"context"
	"fmt"
	"time"

	"flowedit/change"
)

// Outcomes recorded in the history.
const (
	OutcomeExecuted = "executed"
	OutcomeFailed   = "failed"
)

// Record is one executed or failed change request.
type Record struct {
	ID          int64
	At          time.Time
	Origin      string
	Description string
	Outcome     string
	Error       string
}

// Append adds a record to the history of document.
func (j *Journal) Append(ctx context.Context, document string, r Record) error {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := j.conn.ExecContext(ctx, `
		INSERT INTO history (document, at, origin, description, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, document, r.At.UnixMilli(), r.Origin, r.Description, r.Outcome, r.Error)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// History returns the latest records of document, newest first. A
// non-positive limit returns everything.
func (j *Journal) History(ctx context.Context, document string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.conn.QueryContext(ctx, `
		SELECT id, at, origin, description, outcome, error FROM history
		WHERE document = ? ORDER BY id DESC LIMIT ?
	`, document, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r  Record
			at int64
		)
		if err := rows.Scan(&r.ID, &at, &r.Origin, &r.Description, &r.Outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		r.At = time.UnixMilli(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recorder is a change.Listener that appends every outcome to the history
// of one document.
type Recorder struct {
	j        *Journal
	document string
}

// NewRecorder creates a listener writing to document's history.
func (j *Journal) NewRecorder(document string) *Recorder {
	return &Recorder{j: j, document: document}
}

// ChangeExecuted implements change.Listener.
func (r *Recorder) ChangeExecuted(req *change.Request) {
	r.append(req, OutcomeExecuted, "")
}

// ChangeFailed implements change.Listener.
func (r *Recorder) ChangeFailed(req *change.Request, err error) {
	r.append(req, OutcomeFailed, err.Error())
}

func (r *Recorder) append(req *change.Request, outcome, msg string) {
	rec := Record{Origin: req.Origin, Description: req.Description, Outcome: outcome, Error: msg}
	if err := r.j.Append(context.Background(), r.document, rec); err != nil {
		r.j.logger.Warn("history not recorded", "document", r.document, "description", req.Description, "error", err)
	}
}
