// Package token turns bearer credentials into verified principals. It only
// verifies tokens; issuance belongs to the upstream auth service, and the
// Generate helper exists for tests and internal tooling.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"customerd/internal/authz"
	dErrors "customerd/pkg/domain-errors"
)

// Claims are the JWT claims this service trusts after signature verification.
type Claims struct {
	UserID   int64  `json:"userId"`
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service validates and (for tests) mints HS256 tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// ValidateToken verifies the credential and extracts a Principal. All
// failures map to CodeUnauthorized; the caller never learns whether the
// signature, expiry, or claim set was at fault beyond the message.
func (s *Service) ValidateToken(tokenString string) (authz.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authz.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return authz.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return authz.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return authz.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.UserID == 0 || claims.Username == "" {
		return authz.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "token is missing required claims")
	}
	role, ok := authz.ParseRole(claims.Role)
	if !ok {
		return authz.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "token carries an unknown role")
	}

	return authz.Principal{
		UserID:   claims.UserID,
		Role:     role,
		Username: claims.Username,
	}, nil
}

// GenerateToken mints a signed token asserting the given identity.
func (s *Service) GenerateToken(userID int64, role authz.Role, username string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID,
		Role:     string(role),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}
