package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySize AES-256 密钥长度（字节）
const KeySize = 32

// CredentialError 凭据信封格式错误或密钥不可用。
// 解密成功不代表数据完整性（CBC 无认证标签），调用方不得据此做完整性判断。
type CredentialError struct {
	Reason string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential error: %s", e.Reason)
}

func newErr(reason string) *CredentialError {
	return &CredentialError{Reason: reason}
}

// Encrypt 使用 AES-256-CBC 加密明文，返回 "<ivHex>:<cipherHex>" 信封。
// IV 每次随机生成，同一明文多次加密产生不同密文。
func Encrypt(plaintext string, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", newErr(fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", newErr(err.Error())
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", newErr("failed to generate iv")
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt 解析 "<ivHex>:<cipherHex>" 信封并解密。
// 信封段数不足、密钥长度错误、解密或去填充失败均返回 CredentialError。
func Decrypt(envelope string, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", newErr(fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)))
	}

	parts := strings.SplitN(envelope, ":", 2)
	if len(parts) < 2 {
		return "", newErr("malformed envelope: expected ivHex:cipherHex")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", newErr("malformed envelope: bad iv")
	}
	ct, err := hex.DecodeString(parts[1])
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", newErr("malformed envelope: bad ciphertext")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", newErr(err.Error())
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", newErr("decryption failed: bad padding")
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
