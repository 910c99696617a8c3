// internal/crack/engine.go
package crack

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hexlattice/leakjar/internal/secrets"
	"github.com/hexlattice/leakjar/internal/token"
)

// Result is the outcome of one cracking pass over one token. It is created
// once and never mutated afterwards.
type Result struct {
	Token *token.Token

	// Secret is the first matching secret in set order. Empty when no
	// match was found.
	Secret string
	// Matched distinguishes an empty-string secret from "no match".
	Matched bool
	// Skipped is set when the token's algorithm is outside the HMAC
	// family and no secrets were tried at all.
	Skipped bool
	// Tried counts secrets attempted: the 1-based position of the match,
	// or the full set size on exhaustion, or zero when skipped.
	Tried int
}

// Options tunes an Engine.
type Options struct {
	// Concurrency bounds how many tokens are cracked in parallel.
	// Values below 1 fall back to DefaultConcurrency.
	Concurrency int
	// StopOnMatch cancels all in-flight per-token loops after the first
	// overall match anywhere in the batch. Loops stop after their current
	// comparison; already-finished results are kept.
	StopOnMatch bool
}

// DefaultConcurrency is a sane bound for the per-token worker pool. The
// inner secret loop is pure CPU, so there is no point going wide.
const DefaultConcurrency = 4

// Engine drives the verifier across a shared read-only secret set for one
// or more tokens. Tokens are independent, so they may be cracked
// concurrently; each token's own secret loop stays sequential because
// first-match semantics depend on set order.
type Engine struct {
	set    *secrets.Set
	opts   Options
	logger *zap.Logger
}

// NewEngine builds an Engine over the given secret set.
func NewEngine(set *secrets.Set, opts Options, logger *zap.Logger) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{set: set, opts: opts, logger: logger.Named("CrackEngine")}
}

// Crack runs one pass over the given tokens and returns one Result per
// token, in input order regardless of scheduling. Cancelling ctx stops the
// pass early; partial loops report however many secrets they had tried.
func (e *Engine) Crack(ctx context.Context, tokens []*token.Token) []Result {
	results := make([]Result, len(tokens))
	if len(tokens) == 0 {
		return results
	}

	runCtx := ctx
	var stop context.CancelFunc
	if e.opts.StopOnMatch {
		runCtx, stop = context.WithCancel(ctx)
		defer stop()
	}

	g := new(errgroup.Group)
	g.SetLimit(e.opts.Concurrency)

	for i, t := range tokens {
		g.Go(func() error {
			results[i] = e.crackOne(runCtx, t)
			if results[i].Matched && stop != nil {
				stop()
			}
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	return results
}

// crackOne walks the secret set in order and short-circuits on the first
// match. The cancellation check sits between comparisons so a stop signal
// never interrupts a comparison midway.
func (e *Engine) crackOne(ctx context.Context, t *token.Token) Result {
	if !t.Algorithm.Supported() {
		e.logger.Debug("Skipping token with unsupported algorithm",
			zap.String("alg", algTag(t)))
		return Result{Token: t, Skipped: true}
	}

	tried := 0
	for _, secret := range e.set.Entries() {
		if ctx.Err() != nil {
			return Result{Token: t, Tried: tried}
		}
		tried++
		if Verify(t, []byte(secret)) {
			e.logger.Debug("Secret matched",
				zap.String("alg", t.Algorithm.String()),
				zap.Int("tried", tried))
			return Result{Token: t, Secret: secret, Matched: true, Tried: tried}
		}
	}
	return Result{Token: t, Tried: tried}
}

// algTag reports the literal header tag for logging; the enum collapses
// everything unsupported, which would hide what the server actually sent.
func algTag(t *token.Token) string {
	if tag, ok := t.Header["alg"].(string); ok {
		return tag
	}
	return t.Algorithm.String()
}
