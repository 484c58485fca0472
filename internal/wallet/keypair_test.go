package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPrivateKey() solana.PrivateKey {
	b := make([]byte, 64)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return solana.PrivateKey(b)
}

func TestSaveAndLoadKeypairRoundTrips(t *testing.T) {
	priv := fixedPrivateKey()
	path := filepath.Join(t.TempDir(), "id.json.enc")

	require.NoError(t, SaveKeypair(path, []byte("correct horse"), priv))

	got, err := LoadKeypair(path, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, priv, got)
}

func TestLoadKeypairRejectsWrongPassword(t *testing.T) {
	priv := fixedPrivateKey()
	path := filepath.Join(t.TempDir(), "id.json.enc")
	require.NoError(t, SaveKeypair(path, []byte("right"), priv))

	_, err := LoadKeypair(path, []byte("wrong"))
	assert.Error(t, err)
}

func TestLoadKeypairRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json.enc")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))

	_, err := LoadKeypair(path, []byte("anything"))
	assert.Error(t, err)
}

func TestLoadKeypairErrorsOnMissingFile(t *testing.T) {
	_, err := LoadKeypair(filepath.Join(t.TempDir(), "missing.enc"), []byte("x"))
	assert.Error(t, err)
}
