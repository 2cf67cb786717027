package licfile

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lockboxlabs/licenser/pkg/cryptox"
)

// TokenClaims is the claim set of the compact JWT license export. The
// subject is the license ID; kid in the header names the signing key.
type TokenClaims struct {
	jwt.RegisteredClaims

	AppID    string   `json:"app_id"`
	Customer string   `json:"customer"`
	Features []string `json:"features,omitempty"`
}

// VerifyToken verifies a compact license token against the signer's
// PEM-encoded public key and returns its claims. Expiry of the token (set
// from the license ValidTo) is checked by the JWT library; callers that only
// care about integrity can pass jwt.WithoutClaimsValidation via their own
// parse.
func VerifyToken(token string, publicKeyPEM []byte) (*TokenClaims, error) {
	pub, err := cryptox.ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	claims := &TokenClaims{}
	_, err = jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return pub, nil },
		jwt.WithValidMethods([]string{"RS256", "ES256", "EdDSA"}),
	)
	if err != nil {
		return nil, fmt.Errorf("licfile: token verification failed: %w", err)
	}

	return claims, nil
}
