package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// SessionTokenPrefix 是会话令牌的固定前缀，与Parse Server签发的令牌形态一致，
// 便于下游系统识别令牌格式。它不包含任何秘密信息。
const SessionTokenPrefix = "r:"

// sessionTokenBytes 是会话令牌随机部分的字节数（编码后为48个十六进制字符）
const sessionTokenBytes = 24

// ObjectIDLength 是所有实体对外暴露的objectId长度
const ObjectIDLength = 10

// NewSessionToken 生成一个密码学安全的会话令牌。
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("无法生成会话令牌: %w", err)
	}
	return SessionTokenPrefix + hex.EncodeToString(buf), nil
}

// NewObjectID 生成一个10位的不透明objectId，取自随机UUID的十六进制前缀。
func NewObjectID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:ObjectIDLength]
}
