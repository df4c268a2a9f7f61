// token.go

package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("令牌无效")

const issuer = "tankstorm"

// Claims 令牌载荷
type Claims struct {
	PlayerID string `json:"player_id"`
	Guest    bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager 签发和校验玩家令牌
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager 创建令牌管理器，secret 为空时使用进程内随机密钥
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if secret == "" {
		log.Println("未配置 jwt_secret，使用随机密钥，重启后令牌失效")
		secret = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue 签发令牌
func (m *TokenManager) Issue(playerID string, guest bool) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		Guest:    guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   playerID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// IssueGuest 为新游客生成ID并签发令牌
func (m *TokenManager) IssueGuest() (playerID, token string, err error) {
	playerID = "guest-" + uuid.NewString()
	token, err = m.Issue(playerID, true)
	return playerID, token, err
}

// Verify 校验令牌并返回载荷
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.PlayerID == "" {
		return nil, fmt.Errorf("%w: 缺少 player_id", ErrInvalidToken)
	}
	return claims, nil
}
