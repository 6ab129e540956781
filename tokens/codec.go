package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

// DefaultTTL is the lifetime of an issued installation token.
const DefaultTTL = time.Hour

// installClaims is the wire form of interfaces.TokenClaims. Ids travel as
// decimal strings.
type installClaims struct {
	AppID    string `json:"appId"`
	EntityID string `json:"entityId"`
	jwt.RegisteredClaims
}

// Codec signs and decodes installation tokens with a shared HMAC secret.
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) { c.ttl = ttl }
}

// WithLeeway tolerates clock skew when checking expiry.
func WithLeeway(leeway time.Duration) CodecOption {
	return func(c *Codec) { c.leeway = leeway }
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec signing with secret. The secret must not be empty.
func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is empty")
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %s", c.ttl)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs claims into an HS256 token expiring after the configured TTL.
// The returned expiry equals the exp claim embedded in the token. Every token
// carries a random jti, so repeated issuance for one pair yields distinct values.
func (c *Codec) Issue(claims interfaces.TokenClaims) (string, time.Time, error) {
	if err := claims.Validate(); err != nil {
		return "", time.Time{}, err
	}

	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, installClaims{
		AppID:    strconv.FormatUint(claims.AppID, 10),
		EntityID: strconv.FormatUint(claims.EntityID, 10),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAndDecode checks the signature and expiry of token and returns its claims.
// All failures wrap interfaces.ErrInvalidToken.
func (c *Codec) VerifyAndDecode(token string) (interfaces.TokenClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return interfaces.TokenClaims{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidToken, err)
	}

	return claimsFrom(parsed)
}

// DecodeUnchecked returns the claims of token without checking its signature
// or expiry. Only for inspection of tokens that are not trusted.
func DecodeUnchecked(token string) (interfaces.TokenClaims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return interfaces.TokenClaims{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidToken, err)
	}
	return claimsFrom(parsed)
}

// ExpiresAt returns the exp claim of token without verifying it.
func ExpiresAt(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidToken, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", interfaces.ErrInvalidToken)
	}
	return exp.Time, nil
}

func claimsFrom(token *jwt.Token) (interfaces.TokenClaims, error) {
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return interfaces.TokenClaims{}, fmt.Errorf("%w: unexpected claims type", interfaces.ErrInvalidToken)
	}

	appID, err := idClaim(mc, "appId")
	if err != nil {
		return interfaces.TokenClaims{}, err
	}
	entityID, err := idClaim(mc, "entityId")
	if err != nil {
		return interfaces.TokenClaims{}, err
	}

	claims := interfaces.TokenClaims{AppID: appID, EntityID: entityID}
	if err := claims.Validate(); err != nil {
		return interfaces.TokenClaims{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidToken, err)
	}
	return claims, nil
}

// idClaim reads a positive integer claim. Both string and JSON number forms
// are accepted; anything else is rejected rather than coerced.
func idClaim(mc jwt.MapClaims, name string) (uint64, error) {
	raw, ok := mc[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s claim", interfaces.ErrInvalidToken, name)
	}

	switch v := raw.(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s claim %q is not numeric", interfaces.ErrInvalidToken, name, v)
		}
		return id, nil
	case float64:
		if v < 1 || v != float64(uint64(v)) {
			return 0, fmt.Errorf("%w: %s claim %v is not a positive integer", interfaces.ErrInvalidToken, name, v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s claim has type %T", interfaces.ErrInvalidToken, name, raw)
	}
}
