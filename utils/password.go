package utils

import "golang.org/x/crypto/bcrypt"

// SetPassword 生成哈希密码（使用 bcrypt 哈希）
func SetPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// RandomPasswordHash 为仅通过身份提供方登录的本地用户生成一个不可用的随机密码哈希
func RandomPasswordHash() (string, error) {
	secret, err := RandomSecret(24)
	if err != nil {
		return "", err
	}
	return SetPassword(secret)
}
