package internal_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/relapse/blob/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeOf(t *testing.T) {
	t.Run("bytes reader", func(t *testing.T) {
		assert.Equal(t, int64(5), internal.SizeOf(bytes.NewReader([]byte("hello"))))
	})

	t.Run("strings reader after partial read", func(t *testing.T) {
		r := strings.NewReader("hello world")
		_, err := r.Read(make([]byte, 6))
		require.NoError(t, err)
		assert.Equal(t, int64(5), internal.SizeOf(r))
	})

	t.Run("section reader", func(t *testing.T) {
		r := io.NewSectionReader(strings.NewReader("0123456789"), 2, 4)
		assert.Equal(t, int64(4), internal.SizeOf(r))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photo.jpg")
		require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		_, err = f.Seek(3, io.SeekStart)
		require.NoError(t, err)
		assert.Equal(t, int64(7), internal.SizeOf(f))
	})

	t.Run("unknown", func(t *testing.T) {
		r, w := io.Pipe()
		defer func() { _ = w.Close() }()
		assert.Equal(t, int64(-1), internal.SizeOf(r))
	})
}
