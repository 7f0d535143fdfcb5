package service

import (
	"fmt"
	"time"

	"clinic-ledger/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const staffTokenExpiry = 12 * time.Hour

// JWTTokenService implements ports.TokenService using HS256 JWT. The clinic
// application is the normal issuer of staff tokens; this service validates
// them with the shared secret. Generate is used by tooling and tests.
type JWTTokenService struct {
	secret []byte
	issuer string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Generate creates a signed staff token.
func (s *JWTTokenService) Generate(staffID uuid.UUID, staffName string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(staffTokenExpiry)

	claims := jwt.MapClaims{
		"sub":        staffID.String(),
		"staff_name": staffName,
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
		"iss":        s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses and validates a staff token, returning the claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.StaffClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing subject claim")
	}
	staffID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid staff ID in token: %w", err)
	}

	staffName, _ := claims["staff_name"].(string)

	return &ports.StaffClaims{
		StaffID:   staffID,
		StaffName: staffName,
	}, nil
}
