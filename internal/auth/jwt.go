package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// Token lifetimes mirror the identity provider the original deployment
// used: a short-lived access token and an id token carrying profile claims.
const (
	accessTokenTTL = 1 * time.Hour
	idTokenTTL     = 1 * time.Hour
)

// Token use values, stored in the token_use claim
const (
	UseID     = "id"
	UseAccess = "access"
)

// Claims represents the claims carried by bookhub tokens.
// Name and Role are only populated on id tokens.
type Claims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the JWT secret key
func InitializeJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateTokenPair mints the id token and access token for an
// authenticated user. The id token carries the profile claims the client
// session is built from; the access token is what gets attached as the
// bearer credential on API calls.
func GenerateTokenPair(userID, name, email, role string) (idToken, accessToken string, err error) {
	if len(jwtSecret) == 0 {
		return "", "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()

	idClaims := Claims{
		Name:     name,
		Email:    email,
		Role:     role,
		TokenUse: UseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(idTokenTTL)),
		},
	}
	idToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, idClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}

	accessClaims := Claims{
		Email:    email,
		TokenUse: UseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}
	accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}

	return idToken, accessToken, nil
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ValidateAccessToken validates a token and additionally requires it to
// be an access token. Id tokens presented as bearer credentials are rejected.
func ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != UseAccess {
		return nil, fmt.Errorf("token is not an access token")
	}
	return claims, nil
}
