package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

const CookieName = "auth_token"

var ErrInvalidToken = errors.New("invalid or expired session token")

// Claims are the session fields carried in the cookie
type Claims struct {
	Role     models.UserRole `json:"role"`
	Remember bool            `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(id), nil
}

// Manager issues and verifies HS256 session tokens
type Manager struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewManager(secret string, sessionTTL, rememberTTL time.Duration) *Manager {
	return &Manager{
		secret:      []byte(secret),
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// TTL is the token lifetime for the remember flag
func (m *Manager) TTL(remember bool) time.Duration {
	if remember {
		return m.rememberTTL
	}
	return m.sessionTTL
}

// Issue signs a token for the user
func (m *Manager) Issue(user *models.User, remember bool) (string, error) {
	now := m.now()
	claims := Claims{
		Role:     user.Role,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL(remember))),
			Issuer:    "teaching-assistant",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry
func (m *Manager) Parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := parseRoleClaim(claims.Role); err != nil {
		return nil, err
	}
	return &claims, nil
}

func parseRoleClaim(role models.UserRole) (models.UserRole, error) {
	r, err := models.ParseRole(string(role))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return r, nil
}
