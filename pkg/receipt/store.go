package receipt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Store gives access to the locally stored receipt blob. Data returns
// ErrNoReceiptData when no receipt is present.
type Store interface {
	Data() ([]byte, error)
}

// FileStore reads the receipt from a fixed path.
type FileStore struct {
	Path string
}

// Data reads the receipt file.
func (s FileStore) Data() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoReceiptData
		}
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoReceiptData
	}
	return data, nil
}
