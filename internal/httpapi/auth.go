package httpapi

import (
	"errors"
	"log"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"warungpos/backend/internal/domain"
)

// AuthManager verifies bearer tokens issued by the external identity
// provider. Tokens are HS256-signed with a shared secret; this process never
// issues them. It also guards destructive admin operations behind a bcrypt
// manager PIN.
type AuthManager struct {
	secret     []byte
	managerPIN string
}

type posClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, managerPIN string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}

	// An empty PIN stays empty: ValidateManagerPIN only compares against a
	// bcrypt hash, so the guard rejects every attempt until a PIN is set.
	managerPIN = strings.TrimSpace(managerPIN)
	if managerPIN != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(managerPIN), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[auth] hashing manager PIN failed, PIN guard locked: %v", err)
			managerPIN = ""
		} else {
			managerPIN = string(hashed)
		}
	}

	return &AuthManager{
		secret:     []byte(secret),
		managerPIN: managerPIN,
	}
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) ValidateManagerPIN(pin string) bool {
	input := strings.TrimSpace(pin)
	if input == "" || !isBcryptHash(a.managerPIN) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.managerPIN), []byte(input)) == nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
