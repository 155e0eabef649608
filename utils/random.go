package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand/v2"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomSuffix 生成 n 位小写字母数字随机串，用于用户名/占位邮箱冲突重试
func RandomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[mrand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}

// RandomSecret 生成 n 字节的随机密钥并以 URL 安全的 base64 返回
func RandomSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("生成随机密钥失败: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
