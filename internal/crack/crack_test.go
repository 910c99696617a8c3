// internal/crack/crack_test.go
package crack

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/hexlattice/leakjar/internal/secrets"
	"github.com/hexlattice/leakjar/internal/token"
)

func signedToken(t *testing.T, alg string, claims jwt.MapClaims, secret string) *token.Token {
	t.Helper()
	method := jwt.GetSigningMethod(alg)
	require.NotNil(t, method)
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	tok, err := token.Decode(raw)
	require.NoError(t, err)
	return tok
}

// unsupportedToken crafts a structurally valid token with a non-HMAC
// algorithm tag and a junk signature segment.
func unsupportedToken(t *testing.T, alg string) *token.Token {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	raw := enc([]byte(fmt.Sprintf(`{"alg":%q,"typ":"JWT"}`, alg))) + "." +
		enc([]byte(`{"sub":"1"}`)) + "." + enc([]byte("junk"))
	tok, err := token.Decode(raw)
	require.NoError(t, err)
	return tok
}

func TestVerify_SupportedAlgorithms(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			tok := signedToken(t, alg, jwt.MapClaims{"sub": "1"}, "correct-horse")

			assert.True(t, Verify(tok, []byte("correct-horse")))
			assert.False(t, Verify(tok, []byte("battery-staple")))
			assert.False(t, Verify(tok, []byte("")))
		})
	}
}

func TestVerify_DistinctSecretsNoFalsePositives(t *testing.T) {
	tok := signedToken(t, "HS256", jwt.MapClaims{"sub": "1"}, "the-real-secret")
	for i := 0; i < 100; i++ {
		assert.False(t, Verify(tok, []byte(fmt.Sprintf("candidate-%d", i))))
	}
}

func TestVerify_UnsupportedAlgorithmPanics(t *testing.T) {
	tok := unsupportedToken(t, "none")
	assert.Panics(t, func() { Verify(tok, []byte("secret")) })
}

func TestEngine_FirstMatchShortCircuit(t *testing.T) {
	// Concrete contract: secret at position 2 means exactly 2 tried.
	tok := signedToken(t, "HS256", jwt.MapClaims{"sub": "1"}, "secret")
	set := secrets.Build([]string{"wrong1", "secret", "wrong2"}, nil)

	engine := NewEngine(set, Options{}, zap.NewNop())
	results := engine.Crack(context.Background(), []*token.Token{tok})
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.Matched)
	assert.Equal(t, "secret", res.Secret)
	assert.Equal(t, 2, res.Tried)
	assert.False(t, res.Skipped)
}

func TestEngine_Exhausted(t *testing.T) {
	tok := signedToken(t, "HS256", jwt.MapClaims{"sub": "1"}, "not-in-the-list")
	set := secrets.Build([]string{"a", "b", "c", "d"}, nil)

	engine := NewEngine(set, Options{}, zap.NewNop())
	results := engine.Crack(context.Background(), []*token.Token{tok})
	require.Len(t, results, 1)

	res := results[0]
	assert.False(t, res.Matched)
	assert.Empty(t, res.Secret)
	assert.Equal(t, set.Len(), res.Tried)
	assert.False(t, res.Skipped)
}

func TestEngine_SkipsUnsupportedAlgorithms(t *testing.T) {
	for _, alg := range []string{"none", "RS256", "ES384"} {
		t.Run(alg, func(t *testing.T) {
			tok := unsupportedToken(t, alg)
			set := secrets.Build([]string{"secret"}, nil)

			engine := NewEngine(set, Options{}, zap.NewNop())
			results := engine.Crack(context.Background(), []*token.Token{tok})
			require.Len(t, results, 1)

			res := results[0]
			assert.True(t, res.Skipped)
			assert.False(t, res.Matched)
			assert.Equal(t, 0, res.Tried)
		})
	}
}

func TestEngine_PreservesInputOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var tokens []*token.Token
	for i := 0; i < 32; i++ {
		tokens = append(tokens, signedToken(t, "HS256", jwt.MapClaims{"sub": fmt.Sprint(i)}, fmt.Sprintf("secret-%d", i)))
	}
	var list []string
	for i := 0; i < 32; i++ {
		list = append(list, fmt.Sprintf("secret-%d", i))
	}
	set := secrets.Build(list, nil)

	engine := NewEngine(set, Options{Concurrency: 8}, zap.NewNop())
	results := engine.Crack(context.Background(), tokens)
	require.Len(t, results, len(tokens))

	for i, res := range results {
		assert.Same(t, tokens[i], res.Token, "result %d out of order", i)
		assert.True(t, res.Matched)
		assert.Equal(t, fmt.Sprintf("secret-%d", i), res.Secret)
		assert.Equal(t, i+1, res.Tried)
	}
}

func TestEngine_StopOnMatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	matched := signedToken(t, "HS256", jwt.MapClaims{"sub": "a"}, "hit")
	unmatched := signedToken(t, "HS256", jwt.MapClaims{"sub": "b"}, "absent")
	set := secrets.Build([]string{"hit", "x", "y", "z"}, nil)

	// Concurrency 1 makes scheduling deterministic: the first token
	// matches immediately, so the second loop starts canceled.
	engine := NewEngine(set, Options{Concurrency: 1, StopOnMatch: true}, zap.NewNop())
	results := engine.Crack(context.Background(), []*token.Token{matched, unmatched})
	require.Len(t, results, 2)

	assert.True(t, results[0].Matched)
	assert.Equal(t, 1, results[0].Tried)

	assert.False(t, results[1].Matched)
	assert.Equal(t, 0, results[1].Tried)
}

func TestEngine_CanceledContext(t *testing.T) {
	tok := signedToken(t, "HS256", jwt.MapClaims{"sub": "1"}, "secret")
	set := secrets.Build([]string{"a", "b", "secret"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(set, Options{}, zap.NewNop())
	results := engine.Crack(ctx, []*token.Token{tok})
	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
	assert.Equal(t, 0, results[0].Tried)
}

func TestEngine_EmptyInput(t *testing.T) {
	set := secrets.Build([]string{"a"}, nil)
	engine := NewEngine(set, Options{}, zap.NewNop())
	results := engine.Crack(context.Background(), nil)
	assert.Empty(t, results)
}

// -- Benchmarks --

func BenchmarkVerify_HS256(b *testing.B) {
	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "bench"}).
		SignedString([]byte("a-secret-nobody-guesses"))
	tok, _ := token.Decode(raw)
	secret := []byte("candidate")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Verify(tok, secret)
	}
}
