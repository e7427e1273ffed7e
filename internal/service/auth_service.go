package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthService emite y valida los tokens HS256 de los clientes de la API.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// CallerClaims identifica a la aplicacion que llama al motor.
type CallerClaims struct {
	Caller string `json:"caller"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "persona-engine",
	}
}

// Enabled es false cuando no hay secreto configurado.
func (s *AuthService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *AuthService) IssueToken(caller string) (string, error) {
	if !s.Enabled() {
		return "", ErrTokenInvalid
	}
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	claims := CallerClaims{
		Caller: caller,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   caller,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *AuthService) ParseToken(tokenString string) (CallerClaims, error) {
	if !s.Enabled() {
		return CallerClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return CallerClaims{}, ErrTokenInvalid
	}
	var claims CallerClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return CallerClaims{}, ErrTokenExpired
		}
		return CallerClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Caller) == "" || claims.Subject != claims.Caller {
		return CallerClaims{}, ErrTokenInvalid
	}
	if claims.Issuer != s.issuer {
		return CallerClaims{}, ErrTokenInvalid
	}
	return claims, nil
}
