package auth

//go:generate mockgen -destination=mocks/mock_validator.go -package=mocks -source=validator.go tokenValidatorInterface

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stacklok/docsource-server/internal/config"
)

const defaultAlgorithm = "HS256"

// tokenValidatorInterface abstracts token validation for testability.
type tokenValidatorInterface interface {
	ValidateToken(ctx context.Context, token string) (jwt.MapClaims, error)
}

// validatorFactory creates token validators from configuration.
type validatorFactory func(ctx context.Context, cfg config.JWTProviderConfig) (tokenValidatorInterface, error)

// DefaultValidatorFactory builds validators that check tokens against a local key file.
var DefaultValidatorFactory validatorFactory = func(
	_ context.Context,
	cfg config.JWTProviderConfig,
) (tokenValidatorInterface, error) {
	return newKeyFileValidator(cfg)
}

// keyFileValidator verifies signed tokens with a single key
type keyFileValidator struct {
	key    any
	parser *jwt.Parser
}

func newKeyFileValidator(cfg config.JWTProviderConfig) (*keyFileValidator, error) {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = defaultAlgorithm
	}

	data, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := parseKey(algorithm, data)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &keyFileValidator{key: key, parser: jwt.NewParser(opts...)}, nil
}

func parseKey(algorithm string, data []byte) (any, error) {
	switch {
	case strings.HasPrefix(algorithm, "HS"):
		secret := []byte(strings.TrimSpace(string(data)))
		if len(secret) == 0 {
			return nil, errors.New("key file is empty")
		}
		return secret, nil
	case strings.HasPrefix(algorithm, "RS"), strings.HasPrefix(algorithm, "PS"):
		key, err := jwt.ParseRSAPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		return key, nil
	case strings.HasPrefix(algorithm, "ES"):
		key, err := jwt.ParseECPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC public key: %w", err)
		}
		return key, nil
	case algorithm == "EdDSA":
		key, err := jwt.ParseEdPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Ed25519 public key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
}

// ValidateToken parses the token and verifies its signature and registered claims
func (v *keyFileValidator) ValidateToken(_ context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return nil, err
	}
	return claims, nil
}
