package token

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the decoded payload of a token issued by Codec.
type Claims struct {
	Subject   string // identity email
	UserID    uint   // identity primary key
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies compact HS256 JWTs.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewCodec creates a codec for the given HMAC secret and issuer
func NewCodec(secret, issuer string) *Codec {
	return &Codec{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec that reads the current time from now
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue signs a token carrying the subject and id of claims, valid for ttl
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenGeneration)
	}

	issuedAt := c.now()
	mapClaims := jwt.MapClaims{
		"iss": c.issuer,
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(ttl).Unix(),
		"sub": claims.Subject,
		"id":  claims.UserID,
		"jti": uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Verify reports whether the token has an intact signature under the
// configured key and has not expired. It never returns an error.
func (c *Codec) Verify(tokenString string) bool {
	_, err := c.parse(tokenString)
	return err == nil
}

// ExtractClaims verifies the token and returns its decoded claims.
// Every failure is reported as ErrInvalidToken.
func (c *Codec) ExtractClaims(tokenString string) (*Claims, error) {
	mapClaims, err := c.parse(tokenString)
	if err != nil {
		return nil, err
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	rawID, ok := mapClaims["id"].(float64)
	if !ok || rawID < 0 || rawID > math.MaxUint32 || rawID != math.Trunc(rawID) {
		return nil, fmt.Errorf("%w: missing or malformed id claim", ErrInvalidToken)
	}

	issuer, _ := mapClaims.GetIssuer()
	claims := &Claims{
		Subject: subject,
		UserID:  uint(rawID),
		Issuer:  issuer,
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func (c *Codec) parse(tokenString string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpiredToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
