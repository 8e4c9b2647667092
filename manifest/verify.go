package manifest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// validSigningMethods restricts the algorithms accepted for the
// detached manifest signature.
var validSigningMethods = []string{"HS256", "RS256", "ES256", "EdDSA"}

// digestClaim is the claim carrying the hex SHA-256 of the payload.
const digestClaim = "sha256"

// verifyDetached checks a detached JWS binding the payload digest.
// The token's "sha256" claim must equal the hex SHA-256 of the payload.
func verifyDetached(payload []byte, token string, keyfunc jwt.Keyfunc) error {
	if token == "" {
		return fmt.Errorf("%w: missing %s header", ErrBadSignature, SignatureHeader)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, keyfunc,
		jwt.WithValidMethods(validSigningMethods))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	claimed, _ := claims[digestClaim].(string)
	if claimed == "" {
		return fmt.Errorf("%w: missing %s claim", ErrBadSignature, digestClaim)
	}

	sum := sha256.Sum256(payload)
	want := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(claimed), []byte(want)) != 1 {
		return fmt.Errorf("%w: digest mismatch", ErrBadSignature)
	}
	return nil
}
