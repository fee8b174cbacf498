package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_KnownVector(t *testing.T) {
	// PBKDF2-HMAC-SHA-512, P="password", S="salt", c=1; first 32 bytes of the published 64-byte vector.
	key, err := DeriveKey([]byte("password"), []byte("salt"), 1)
	require.NoError(t, err)
	require.Equal(t, "867f70cf1ade02cff3752599a3a53dc4af34c7a669815ae5d513554e1c8cf252", hex.EncodeToString(key))
}

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := bytes.Repeat([]byte{0x42}, common.SaltSize)

	key1, err := DeriveKey(password, salt, 1000)
	require.NoError(t, err)
	key2, err := DeriveKey(password, salt, 1000)
	require.NoError(t, err)

	// одинаковые входы -> одинаковый вывод
	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	require.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")
	salt := bytes.Repeat([]byte{0x42}, common.SaltSize)

	base, err := DeriveKey(password, salt, 1000)
	require.NoError(t, err)

	otherSalt := append([]byte(nil), salt...)
	otherSalt[0] ^= 0x01
	k1, err := DeriveKey(password, otherSalt, 1000)
	require.NoError(t, err)

	k2, err := DeriveKey([]byte("secret-passwore"), salt, 1000)
	require.NoError(t, err)

	k3, err := DeriveKey(password, salt, 1001)
	require.NoError(t, err)

	for name, k := range map[string][]byte{"salt": k1, "password": k2, "iterations": k3} {
		if bytes.Equal(base, k) {
			t.Errorf("expected different key when %s changes", name)
		}
	}
}

func TestDeriveKey_EmptyPasswordAccepted(t *testing.T) {
	key, err := DeriveKey(nil, []byte("0123456789abcdef"), 10)
	require.NoError(t, err)
	require.Len(t, key, KeySize)
}

func TestDeriveKey_MalformedInput(t *testing.T) {
	_, err := DeriveKey([]byte("pw"), nil, 10)
	require.ErrorIs(t, err, ErrInvalidKDFInput)

	_, err = DeriveKey([]byte("pw"), []byte("salt"), 0)
	require.ErrorIs(t, err, ErrInvalidKDFInput)
}

func TestMakeVerifier(t *testing.T) {
	key := bytes.Repeat([]byte{1}, KeySize)
	v := MakeVerifier(key)
	require.Len(t, v, 32)
	require.Equal(t, v, MakeVerifier(key))

	key[0] = 2
	require.NotEqual(t, v, MakeVerifier(key))
}

func TestDeriveSubKey_DomainSeparated(t *testing.T) {
	master := bytes.Repeat([]byte{7}, KeySize)

	blob, err := DeriveSubKey(master, SubKeyBlob)
	require.NoError(t, err)
	catalog, err := DeriveSubKey(master, SubKeyCatalog)
	require.NoError(t, err)

	require.Len(t, blob, KeySize)
	require.Len(t, catalog, KeySize)
	require.NotEqual(t, blob, catalog)
	require.NotEqual(t, master, blob)

	again, err := DeriveSubKey(master, SubKeyBlob)
	require.NoError(t, err)
	require.Equal(t, blob, again)
}

type sealedMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func TestEncryptDecryptEntry_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	in := sealedMeta{Name: "IMG_0001.jpg", Size: 1234}

	ct, nonce, err := EncryptEntry(in, key)
	require.NoError(t, err)
	require.Len(t, nonce, NonceSize)

	var out sealedMeta
	require.NoError(t, DecryptEntry(ct, nonce, key, &out))
	require.Equal(t, in, out)
}

func TestDecryptEntry_WrongKey(t *testing.T) {
	key := common.GenerateRandByteArray(KeySize)
	ct, nonce, err := EncryptEntry(sealedMeta{Name: "x"}, key)
	require.NoError(t, err)

	var out sealedMeta
	err = DecryptEntry(ct, nonce, common.GenerateRandByteArray(KeySize), &out)
	require.ErrorIs(t, err, common.ErrAuthFailed)

	err = DecryptEntry(ct, nonce[:4], key, &out)
	require.ErrorIs(t, err, common.ErrAuthFailed)
}
