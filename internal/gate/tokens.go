package gate

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

// passClaims is the proof that one gate tier was passed. The kind claim pins
// the token to a single sensitive operation family.
type passClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// grantClaims is the client-held maintenance unlock grant. It is bound to
// the lock epoch current at issue time, so re-enabling the lock strands
// every grant issued before the re-enable.
type grantClaims struct {
	LockEpoch int64 `json:"lockEpoch"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret   []byte
	issuer   string
	passTTL  time.Duration
	grantTTL time.Duration
}

func NewTokenIssuer(secret, issuer string, passTTL, grantTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		passTTL:  passTTL,
		grantTTL: grantTTL,
	}
}

func (t *TokenIssuer) IssuePass(kind model.GateKind) (string, error) {
	now := time.Now().UTC()
	claims := passClaims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.passTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// VerifyPass checks a gate-pass token for the required kind. A promotion
// pass also satisfies the admin action tier, since the second stage of the
// sequence proved exactly that PIN. The other tiers compare PINs the
// promotion never saw and accept only their own passes.
func (t *TokenIssuer) VerifyPass(tokenString string, kind model.GateKind) error {
	var claims passClaims
	if err := t.parse(tokenString, &claims); err != nil {
		return model.ErrInvalidPin
	}
	if claims.Kind == string(model.GatePromotion) && kind == model.GateAdminAction {
		return nil
	}
	if claims.Kind != string(kind) {
		return model.ErrInvalidPin
	}
	return nil
}

func (t *TokenIssuer) IssueGrant(lockEpoch int64) (string, error) {
	now := time.Now().UTC()
	claims := grantClaims{
		LockEpoch: lockEpoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.grantTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// GrantValid reports whether an unlock grant exempts its holder from the
// maintenance lock under the given epoch. An expired, malformed or
// stale-epoch grant is simply absent, never an error surfaced to the caller.
func (t *TokenIssuer) GrantValid(tokenString string, lockEpoch int64) bool {
	if tokenString == "" {
		return false
	}
	var claims grantClaims
	if err := t.parse(tokenString, &claims); err != nil {
		return false
	}
	return claims.LockEpoch == lockEpoch
}

func (t *TokenIssuer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer))
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
