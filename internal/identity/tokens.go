package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider issues and parses HS256 session tokens carrying the profile
// metadata. The HTTP surface uses it so dashboards can present a bearer
// token instead of a workspace profile.
type TokenProvider struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (p TokenProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p TokenProvider) ttl() time.Duration {
	if p.TTL > 0 {
		return p.TTL
	}
	return 24 * time.Hour
}

// Issue signs a session token for the user.
func (p TokenProvider) Issue(userID, name string, metadata map[string]string) (string, error) {
	if strings.TrimSpace(p.Secret) == "" {
		return "", errors.New("token secret not configured")
	}
	if userID == "" {
		return "", errors.New("user id required")
	}
	now := p.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl())),
		},
		Name:     name,
		Metadata: metadata,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.Secret))
}

// Parse validates a session token and returns the user it names.
func (p TokenProvider) Parse(token string) (User, error) {
	if strings.TrimSpace(p.Secret) == "" {
		return User{}, errors.New("token secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(p.Secret), nil
	})
	if err != nil {
		return User{}, err
	}
	if !parsed.Valid {
		return User{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return User{}, errors.New("subject claim required")
	}
	return User{
		ID:         claims.Subject,
		Name:       claims.Name,
		IsSignedIn: true,
		IsLoaded:   true,
		Metadata:   claims.Metadata,
	}, nil
}
