package jwtinfra

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-file-exchange/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields. The subject is the user's email.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Email returns the identity the token was issued for.
func (c *Claims) Email() string { return c.Subject }

// Provider signs and verifies session tokens with either HS256 (shared
// secret) or RS256 (PEM key pair). Only the configured method is accepted.
type Provider struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	expiry    time.Duration
	now       func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	switch cfg.JWTAlgorithm {
	case "", jwt.SigningMethodHS256.Alg():
		if len(cfg.JWTSecret) < 32 {
			return nil, errors.New("JWT_SECRET must be at least 32 bytes for HS256")
		}
		key := []byte(cfg.JWTSecret)
		return newProvider(jwt.SigningMethodHS256, key, key, cfg.JWTExpiry), nil
	case jwt.SigningMethodRS256.Alg():
		privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		return newProvider(jwt.SigningMethodRS256, privKey, pubKey, cfg.JWTExpiry), nil
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", cfg.JWTAlgorithm)
	}
}

func newProvider(method jwt.SigningMethod, signKey, verifyKey interface{}, expiry time.Duration) *Provider {
	return &Provider{
		method:    method,
		signKey:   signKey,
		verifyKey: verifyKey,
		expiry:    expiry,
		now:       time.Now,
	}
}

// Sign issues a token for email and role valid for the configured expiry.
func (p *Provider) Sign(email, role string) (string, error) {
	return p.SignWithTTL(email, role, p.expiry)
}

// SignWithTTL issues a token that expires ttl from now. A ttl of zero yields
// a token that is already expired.
func (p *Provider) SignWithTTL(email, role string, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(p.method, claims)
	return token.SignedString(p.signKey)
}

// Verify checks method, signature and expiry and returns the claims.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.verifyKey, nil
	},
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
