package token

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLen is the minimum signing secret length in bytes. HS256 keys
// shorter than the hash output weaken the MAC; construction refuses them.
const MinSecretLen = 32

var (
	// ErrTokenExpired is returned when an access token's exp claim has passed.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid covers malformed input, signature mismatch, issuer
	// mismatch, and missing claims. The cases are intentionally not
	// distinguishable.
	ErrTokenInvalid = errors.New("invalid access token")
	// ErrRefreshExpired is returned when a refresh token's exp claim has passed.
	ErrRefreshExpired = errors.New("refresh token expired")
	// ErrRefreshInvalid covers malformed, forged, revoked, and replayed
	// refresh tokens.
	ErrRefreshInvalid = errors.New("invalid refresh token")
)

// Config holds codec signing parameters. Instances are set once at
// construction and treated as immutable afterwards.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string

	// Leeway widens exp/iat checks by the given duration to absorb
	// clock skew between signer and verifier. Zero means exact expiry,
	// which is correct when the same service does both; set it only
	// when tokens are verified on other hosts.
	Leeway time.Duration
}

// Codec issues and verifies access and refresh tokens. Safe for concurrent
// use after construction.
type Codec struct {
	config Config
}

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set carried by refresh tokens. The registered
// ID claim holds the token ID that keys the persisted [RefreshRecord].
type RefreshClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// RefreshIssue is the result of minting a refresh token: the signed token
// for the client plus the fields the caller must persist.
type RefreshIssue struct {
	Token      string
	TokenID    string
	SecretHash [32]byte
	ExpiresAt  time.Time
}

// NewCodec validates cfg and returns a ready codec. Secrets below
// [MinSecretLen] are refused so a weak deployment fails at startup rather
// than at the first forged token.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) < MinSecretLen {
		return nil, errors.New("access secret below minimum length")
	}
	if len(cfg.RefreshSecret) < MinSecretLen {
		return nil, errors.New("refresh secret below minimum length")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer required")
	}
	return &Codec{config: cfg}, nil
}

// IssueAccess signs an access token binding userID to sessionID.
func (c *Codec) IssueAccess(userID, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.config.AccessTTL)

	claims := AccessClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccess checks signature, issuer, and expiry before returning claims.
// Expiry maps to [ErrTokenExpired]; every other failure maps to
// [ErrTokenInvalid].
func (c *Codec) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenStr, claims, c.config.AccessSecret); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssueRefresh signs a refresh token binding userID to sessionID under a
// fresh random token ID, and returns the fields to persist alongside it.
// The stored hash covers the full signed token, so a record matches exactly
// one minted credential.
func (c *Codec) IssueRefresh(userID, sessionID string) (*RefreshIssue, error) {
	now := time.Now()
	expiresAt := now.Add(c.config.RefreshTTL)
	tokenID := uuid.NewString()

	claims := RefreshClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.RefreshSecret)
	if err != nil {
		return nil, err
	}

	return &RefreshIssue{
		Token:      signed,
		TokenID:    tokenID,
		SecretHash: HashToken(signed),
		ExpiresAt:  expiresAt,
	}, nil
}

// VerifyRefresh checks signature, issuer, and expiry of a refresh token.
// The caller still has to consult the persisted record; a valid signature
// alone proves nothing about revocation.
func (c *Codec) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenStr, claims, c.config.RefreshSecret); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrRefreshInvalid
	}
	if claims.ID == "" || claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrRefreshInvalid
	}
	return claims, nil
}

func (c *Codec) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.config.Issuer),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

// HashToken returns the SHA-256 digest of a signed token. Only this digest
// is persisted; the raw credential never touches the store.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
