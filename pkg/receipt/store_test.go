package receipt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt")

	_, err := FileStore{Path: path}.Data()
	require.ErrorIs(t, err, ErrNoReceiptData)

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err = FileStore{Path: path}.Data()
	require.ErrorIs(t, err, ErrNoReceiptData)

	require.NoError(t, os.WriteFile(path, []byte{0x30, 0x82}, 0o600))
	data, err := FileStore{Path: path}.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{0x30, 0x82}, data)
}
