package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"propertytrack/internal/config"
	"propertytrack/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrTokenInvalid        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// JWTCustomClaims is shared by both token kinds. Refresh tokens only carry
// the subject and type.
type JWTCustomClaims struct {
	Email string          `json:"email,omitempty"`
	Role  models.UserRole `json:"role,omitempty"`
	Type  string          `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TokenIssuer signs and verifies access and refresh tokens with separate
// HS256 secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

func (ti *TokenIssuer) Issue(user *models.User) (TokenPair, error) {
	now := ti.now()
	sub := strconv.FormatUint(uint64(user.ID), 10)

	access := &JWTCustomClaims{
		Email: user.Email,
		Role:  user.Role,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
		},
	}
	accessStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(ti.accessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("signing access token: %w", err)
	}

	refresh := &JWTCustomClaims{
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.refreshTTL)),
		},
	}
	refreshStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(ti.refreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("signing refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		ExpiresIn:    int64(ti.accessTTL.Seconds()),
	}, nil
}

// ParseAccess verifies an access token and returns the identity it carries.
func (ti *TokenIssuer) ParseAccess(tokenStr string) (Identity, error) {
	claims, err := ti.parse(tokenStr, ti.accessSecret, tokenTypeAccess)
	if err != nil {
		return Identity{}, err
	}
	id, err := subjectID(claims)
	if err != nil {
		return Identity{}, err
	}
	if !claims.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: missing role", ErrTokenInvalid)
	}
	return Identity{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

// ParseRefresh verifies a refresh token and returns its subject.
func (ti *TokenIssuer) ParseRefresh(tokenStr string) (uint, error) {
	claims, err := ti.parse(tokenStr, ti.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return 0, err
	}
	return subjectID(claims)
}

func (ti *TokenIssuer) parse(tokenStr string, secret []byte, typ string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: wrong token type", ErrTokenInvalid)
	}
	return claims, nil
}

func subjectID(claims *JWTCustomClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return uint(id), nil
}
