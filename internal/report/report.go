// internal/report/report.go
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/hexlattice/leakjar/internal/crack"
	"github.com/hexlattice/leakjar/internal/token"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one audited cookie's outcome, shaped for JSON serialization and
// console rendering alike.
type Record struct {
	CookieName    string  `json:"cookie_name"`
	Token         string  `json:"token"`
	Algorithm     string  `json:"algorithm"`
	MatchedSecret *string `json:"matched_secret"`
	TriedCount    int     `json:"tried_count"`
	Skipped       bool    `json:"skipped"`
}

// Report is the ordered outcome of one audit run. Records appear in the
// same order the tokens were cracked; cookies that never decoded as JWTs
// are absent by design.
type Report struct {
	RunID       string    `json:"run_id"`
	Target      string    `json:"target,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Records     []Record  `json:"results"`
}

// Matches counts records with a recovered secret.
func (r *Report) Matches() int {
	n := 0
	for _, rec := range r.Records {
		if rec.MatchedSecret != nil {
			n++
		}
	}
	return n
}

// Build converts crack results into a Report. names maps each token back
// to the cookie that carried it; tokens without an entry (e.g. supplied
// directly on the command line) get an empty cookie name. Pure
// transformation, no I/O.
func Build(runID, target string, results []crack.Result, names map[*token.Token]string) *Report {
	rep := &Report{
		RunID:       runID,
		Target:      target,
		GeneratedAt: time.Now().UTC(),
		Records:     make([]Record, 0, len(results)),
	}
	for _, res := range results {
		rec := Record{
			CookieName: names[res.Token],
			Token:      res.Token.Raw,
			Algorithm:  res.Token.Algorithm.String(),
			TriedCount: res.Tried,
			Skipped:    res.Skipped,
		}
		if res.Matched {
			secret := res.Secret
			rec.MatchedSecret = &secret
		}
		rep.Records = append(rep.Records, rec)
	}
	return rep
}

// WriteJSON serializes the report as indented JSON.
func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteFile writes the JSON report to disk.
func WriteFile(path string, rep *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, rep); err != nil {
		return err
	}
	return f.Sync()
}
