// internal/secrets/refresh.go
package secrets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultWordlistURL is the community-maintained list of JWT secrets that
// have leaked into public code and dumps.
const DefaultWordlistURL = "https://raw.githubusercontent.com/wallarm/jwt-secrets/master/jwt.secrets.list"

// maxWordlistBytes caps how much of a remote wordlist is read. The real
// list is well under a megabyte; anything bigger is a misbehaving server.
const maxWordlistBytes = 8 << 20

// Refresher downloads a supplemental secrets list from a remote source.
// Every failure mode is non-fatal by design: the caller falls back to the
// bundled list and the audit proceeds.
type Refresher struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewRefresher builds a Refresher for the given URL with a bounded timeout.
func NewRefresher(url string, timeout time.Duration, logger *zap.Logger) *Refresher {
	if url == "" {
		url = DefaultWordlistURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("SecretsRefresher"),
	}
}

// Fetch downloads the remote list and returns its non-empty lines. Network
// errors and non-200 responses return an error the caller is expected to
// downgrade to a warning.
func (r *Refresher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build wordlist request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch wordlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch wordlist: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWordlistBytes))
	if err != nil {
		return nil, fmt.Errorf("read wordlist body: %w", err)
	}

	lines := splitLines(string(body))
	r.logger.Debug("Fetched supplemental wordlist",
		zap.String("url", r.url),
		zap.Int("entries", len(lines)))
	return lines, nil
}

// LoadOptions controls how a Set is assembled for a run.
type LoadOptions struct {
	// DictionaryFile is an optional local wordlist merged after the
	// bundled list.
	DictionaryFile string
	// Offline skips the remote refresh entirely.
	Offline bool
	// WordlistURL overrides the remote source. Empty means the default.
	WordlistURL string
	// RefreshTimeout bounds the remote fetch.
	RefreshTimeout time.Duration
}

// Load assembles the secret set for one run: bundled list, then the
// optional local dictionary, then the remote list if reachable. A failed
// refresh degrades to whatever loaded locally; a bad dictionary path is the
// only hard error, since the operator asked for that file explicitly.
func Load(ctx context.Context, opts LoadOptions, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	primary := Bundled()
	if opts.DictionaryFile != "" {
		extra, err := ReadFile(opts.DictionaryFile)
		if err != nil {
			return nil, err
		}
		primary = append(primary, extra...)
	}

	var supplemental []string
	if !opts.Offline {
		refresher := NewRefresher(opts.WordlistURL, opts.RefreshTimeout, logger)
		fetched, err := refresher.Fetch(ctx)
		if err != nil {
			// Degraded, not broken. The bundled list still covers the
			// common leaks.
			logger.Warn("Supplemental wordlist unavailable, using bundled list only",
				zap.Error(err))
		} else {
			supplemental = fetched
		}
	}

	set := Build(primary, supplemental)
	logger.Info("Secret set loaded",
		zap.Int("total", set.Len()),
		zap.Bool("refreshed", len(supplemental) > 0))
	return set, nil
}
