package services

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/gamejam/models"
	"github.com/golang-jwt/jwt/v4"
)

const SessionCookieName = "jam_session"

var ErrInvalidSession = newError(KindUnauthorized, "invalid or expired session")

type sessionClaims struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ProfileRole string `json:"profile_role,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager signs and verifies HS256 session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration, secureCookie bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secureCookie,
		now:    time.Now,
	}
}

func (m *SessionManager) Issue(user *models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := sessionClaims{
		Email: user.Email,
		Name:  user.DisplayName(),
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user.ProfileRole != nil {
		claims.ProfileRole = string(*user.ProfileRole)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *SessionManager) Parse(token string) (models.Identity, error) {
	var claims sessionClaims
	// Expiry is checked below against m.now.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.Identity{}, ErrInvalidSession
	}
	if claims.ExpiresAt == nil || !m.now().Before(claims.ExpiresAt.Time) {
		return models.Identity{}, ErrInvalidSession
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return models.Identity{}, ErrInvalidSession
	}
	role := models.UserRole(claims.Role)
	if !role.Valid() {
		return models.Identity{}, ErrInvalidSession
	}

	return models.Identity{
		UserID:      userID,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        role,
		ProfileRole: claims.ProfileRole,
	}, nil
}

// Cookie wraps a signed token into the session cookie.
func (m *SessionManager) Cookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(expiresAt.Sub(m.now()).Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie on the client.
func (m *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
