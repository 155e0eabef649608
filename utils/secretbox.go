package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrSecretKeyMissing = errors.New("secretbox: 主密钥未配置")
	ErrSecretCorrupted  = errors.New("secretbox: 密文损坏或密钥不匹配")
)

// SecretBox 使用 NaCl secretbox 加解密小块敏感数据 (服务账号 JSON)。
// 输出格式为 base64(nonce|密文)。
type SecretBox struct {
	key [32]byte
}

// NewSecretBox 由主密钥派生 32 字节对称密钥
func NewSecretBox(masterKey string) (*SecretBox, error) {
	if masterKey == "" {
		return nil, ErrSecretKeyMissing
	}
	return &SecretBox{key: blake2b.Sum256([]byte(masterKey))}, nil
}

// Encrypt 加密明文
func (b *SecretBox) Encrypt(plaintext []byte) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secretbox: 生成 nonce 失败: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密 Encrypt 的输出
func (b *SecretBox) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secretbox: base64 解码失败: %w", err)
	}
	if len(raw) < 24+secretbox.Overhead {
		return nil, ErrSecretCorrupted
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	out, ok := secretbox.Open(nil, raw[24:], &nonce, &b.key)
	if !ok {
		return nil, ErrSecretCorrupted
	}
	return out, nil
}
