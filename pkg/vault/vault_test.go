package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := testKey()
	for _, plaintext := range []string{
		"",
		"a",
		"sk-abcdef123456",
		"中文密钥内容",
		strings.Repeat("x", 1000),
	} {
		envelope, err := Encrypt(plaintext, key)
		require.NoError(t, err)

		got, err := Decrypt(envelope, key)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptEnvelopeFormat(t *testing.T) {
	envelope, err := Encrypt("secret", testKey())
	require.NoError(t, err)

	parts := strings.SplitN(envelope, ":", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32) // 16 字节 IV 的十六进制
	assert.NotEmpty(t, parts[1])
}

func TestEncryptRandomIV(t *testing.T) {
	key := testKey()
	e1, err := Encrypt("same plaintext", key)
	require.NoError(t, err)
	e2, err := Encrypt("same plaintext", key)
	require.NoError(t, err)

	assert.NotEqual(t, e1, e2)

	p1, err := Decrypt(e1, key)
	require.NoError(t, err)
	p2, err := Decrypt(e2, key)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestEncryptBadKeyLength(t *testing.T) {
	_, err := Encrypt("x", []byte("short"))
	require.Error(t, err)
	var credErr *CredentialError
	assert.ErrorAs(t, err, &credErr)
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	key := testKey()
	for _, envelope := range []string{
		"",
		"no-colon-here",
		"zzzz:abcd",
		"abcd:zzzz",
		"abcd:",
		":abcd",
	} {
		_, err := Decrypt(envelope, key)
		require.Error(t, err, "envelope %q", envelope)
		var credErr *CredentialError
		assert.ErrorAs(t, err, &credErr)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	envelope, err := Encrypt("secret", testKey())
	require.NoError(t, err)

	other := testKey()
	other[0] ^= 0xff

	got, err := Decrypt(envelope, other)
	// CBC 无认证标签，错误密钥大概率填充校验失败；
	// 即便侥幸通过，解出的内容也不可能等于原文
	if err == nil {
		assert.NotEqual(t, "secret", got)
	}
}

func TestDecryptBadKeyLength(t *testing.T) {
	envelope, err := Encrypt("secret", testKey())
	require.NoError(t, err)

	_, err = Decrypt(envelope, []byte("short"))
	require.Error(t, err)
	var credErr *CredentialError
	assert.ErrorAs(t, err, &credErr)
}
