// internal/crack/verifier.go
package crack

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"

	"github.com/hexlattice/leakjar/internal/token"
)

// hashFor maps the closed algorithm enumeration to its hash constructor.
// Unknown tags were already collapsed to Unsupported at decode time, so a
// miss here is a programming defect, not bad input.
func hashFor(alg token.Algorithm) func() hash.Hash {
	switch alg {
	case token.HS256:
		return sha256.New
	case token.HS384:
		return sha512.New384
	case token.HS512:
		return sha512.New
	default:
		return nil
	}
}

// Verify recomputes the token's HMAC signature under the candidate secret
// and reports whether it matches the captured signature segment. The
// comparison is constant-time with respect to the computed value, dodging
// timing side channels if this engine ever backs a service.
//
// Calling Verify with an unsupported algorithm is a caller bug; the engine
// checks eligibility before entering the secret loop.
func Verify(t *token.Token, secret []byte) bool {
	newHash := hashFor(t.Algorithm)
	if newHash == nil {
		panic(fmt.Sprintf("crack: Verify called with unsupported algorithm %q", t.Algorithm))
	}

	mac := hmac.New(newHash, secret)
	mac.Write(t.SigningInput())
	computed := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	// The stored segment is compared in its encoded form, exactly as it
	// appeared in the cookie. JWT signatures are unpadded base64url, so a
	// genuine match is byte-for-byte.
	return subtle.ConstantTimeCompare([]byte(computed), []byte(t.RawSignature)) == 1
}
