package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/freeeve/hexwar/api/pkg/world"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Claims scopes a token to one faction of one game, so a client only ever
// sees that faction's fogged view.
type Claims struct {
	GameID  string          `json:"game_id"`
	Faction world.FactionID `json:"faction"`
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: 12 * time.Hour,
	}
}

// IssueFactionToken signs a token for faction in gameID.
func (m *JWTManager) IssueFactionToken(gameID string, faction world.FactionID) (string, error) {
	return m.issue(gameID, faction, time.Now().Add(m.expiry))
}

func (m *JWTManager) issue(gameID string, faction world.FactionID, expires time.Time) (string, error) {
	claims := &Claims{
		GameID:  gameID,
		Faction: faction,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   gameID + "/" + strconv.Itoa(int(faction)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT string, returning the claims.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.GameID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExpiresIn is the lifetime of issued tokens in seconds.
func (m *JWTManager) ExpiresIn() int {
	return int(m.expiry.Seconds())
}
