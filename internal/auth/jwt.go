package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"droply/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "droply"

type AppClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &AppClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func VerifyJWT(tokenString, secret string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		if claims.UserID <= 0 {
			return nil, fmt.Errorf("token carries no user: %w", jwt.ErrTokenInvalidClaims)
		}
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}

// Verifier turns an Authorization header into a verified caller identity.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// FromHeader accepts "Bearer <token>". Every failure wraps models.ErrUnauthenticated.
func (v *Verifier) FromHeader(header string) (*AppClaims, error) {
	if header == "" {
		return nil, fmt.Errorf("authorization header required: %w", models.ErrUnauthenticated)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, fmt.Errorf("invalid authorization header format: %w", models.ErrUnauthenticated)
	}

	return v.FromToken(token)
}

func (v *Verifier) FromToken(token string) (*AppClaims, error) {
	claims, err := VerifyJWT(token, v.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", models.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthenticated)
	}
	return claims, nil
}
