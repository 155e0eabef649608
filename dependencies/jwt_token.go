package dependencies

import (
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/constants"
)

// SessionSubject 会话令牌所代表的本地用户
type SessionSubject struct {
	LocalUserID uint
	DocumentID  string
	FirebaseUID string
	Role        enums.UserRole
	Status      enums.UserStatus
	Platform    enums.Platform
}

// JWTTokenInterface 定义 CMS 会话令牌工具的接口
// - 会话令牌在令牌交换后签发，代替身份提供方的 ID Token 访问 CMS。
type JWTTokenInterface interface {
	// GenerateAccessToken 为本地用户签发会话令牌。
	// - Subject 为本地用户的 DocumentID，同时携带身份提供方 UID、角色与状态。
	// - 每个令牌带独立的 JTI，供黑名单使用。
	GenerateAccessToken(subject SessionSubject) (string, error)

	// GenerateRefreshToken 签发刷新令牌。
	// - 只携带用户标识与平台，角色等信息在刷新时重新读取。
	GenerateRefreshToken(subject SessionSubject) (string, error)

	// ParseAccessToken 解析并验证会话令牌
	ParseAccessToken(tokenString string) (*CustomClaims, error)

	// ParseRefreshToken 解析并验证刷新令牌
	ParseRefreshToken(tokenString string) (*CustomClaims, error)
}

// CustomClaims 会话令牌的声明。Subject 为本地用户的 DocumentID。
type CustomClaims struct {
	LocalUserID          uint             `json:"lid"`
	FirebaseUID          string           `json:"fuid"`
	Role                 enums.UserRole   `json:"role"`
	Status               enums.UserStatus `json:"status"`
	Platform             enums.Platform   `json:"platform"`
	jwt.RegisteredClaims                  // 嵌入 JWT v5 的标准声明字段
}

// JWTUtility 实现 JWTTokenInterface 接口
type JWTUtility struct {
	cfg *config.JWTConfig
}

// NewJWTUtility 创建 JWTUtility 实例
// - cfg 中的密钥、签发者与有效期在签发和校验时实时读取。
func NewJWTUtility(cfg *config.JWTConfig) JWTTokenInterface {
	return &JWTUtility{cfg: cfg}
}

func (ju *JWTUtility) GenerateAccessToken(subject SessionSubject) (string, error) {
	claims := ju.newClaims(subject, constants.AccessTokenTTL)
	return ju.sign(claims, ju.cfg.SecretKey)
}

func (ju *JWTUtility) GenerateRefreshToken(subject SessionSubject) (string, error) {
	claims := ju.newClaims(SessionSubject{
		LocalUserID: subject.LocalUserID,
		DocumentID:  subject.DocumentID,
		FirebaseUID: subject.FirebaseUID,
		Platform:    subject.Platform,
	}, constants.RefreshTokenTTL)
	return ju.sign(claims, ju.cfg.RefreshSecret)
}

func (ju *JWTUtility) newClaims(subject SessionSubject, ttl time.Duration) *CustomClaims {
	now := time.Now()
	return &CustomClaims{
		LocalUserID: subject.LocalUserID,
		FirebaseUID: subject.FirebaseUID,
		Role:        subject.Role,
		Status:      subject.Status,
		Platform:    subject.Platform,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ju.cfg.Issuer,
			Subject:   subject.DocumentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
}

func (ju *JWTUtility) sign(claims *CustomClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("签名令牌失败: %w", err)
	}
	return signedToken, nil
}

func (ju *JWTUtility) ParseAccessToken(tokenString string) (*CustomClaims, error) {
	return ju.parseToken(tokenString, []byte(ju.cfg.SecretKey))
}

func (ju *JWTUtility) ParseRefreshToken(tokenString string) (*CustomClaims, error) {
	return ju.parseToken(tokenString, []byte(ju.cfg.RefreshSecret))
}

// parseToken 强制要求过期时间并校验签发者
func (ju *JWTUtility) parseToken(tokenString string, secret []byte) (*CustomClaims, error) {
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(ju.cfg.Issuer),
	)
	token, err := parser.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("签名算法不匹配: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("无效的JWT声明")
	}
	return claims, nil
}
