// internal/secrets/secrets.go
package secrets

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// bundled is the known-leaked-secrets list shipped with the binary. It is
// the floor the auditor always has, even fully offline.
//
//go:embed jwt.secrets.list
var bundled string

// Set is an immutable, deduplicated, ordered collection of candidate
// signing secrets. Order is significant: the cracking engine reports the
// first match in Set order, so primary entries always rank before
// supplemental ones. A Set is never mutated after Build and is safe to
// share across concurrent cracking loops.
type Set struct {
	entries []string
	seen    map[string]struct{}
}

// Build merges a primary list with an optional supplemental list by set
// union. Primary order is preserved; novel supplemental entries are
// appended in their own order. Blank lines and duplicates are dropped.
func Build(primary, supplemental []string) *Set {
	s := &Set{seen: make(map[string]struct{}, len(primary)+len(supplemental))}
	s.append(primary)
	s.append(supplemental)
	return s
}

func (s *Set) append(entries []string) {
	for _, e := range entries {
		e = strings.TrimRight(e, "\r")
		if e == "" {
			continue
		}
		if _, dup := s.seen[e]; dup {
			continue
		}
		s.seen[e] = struct{}{}
		s.entries = append(s.entries, e)
	}
}

// Len returns the number of distinct secrets in the set.
func (s *Set) Len() int {
	return len(s.entries)
}

// Entries returns the secrets in iteration order. The returned slice is the
// set's backing storage and must not be modified; every caller iterating it
// gets the same restartable view, so one token's pass never consumes the
// set for the next.
func (s *Set) Entries() []string {
	return s.entries
}

// Contains reports whether the exact value is in the set.
func (s *Set) Contains(secret string) bool {
	_, ok := s.seen[secret]
	return ok
}

// Bundled returns the embedded leaked-secrets list, one entry per line.
func Bundled() []string {
	return splitLines(bundled)
}

// ReadFile loads a line-oriented wordlist from disk.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	// Secrets can be long; default 64K token limit is plenty but be explicit.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist: %w", err)
	}
	return out, nil
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
