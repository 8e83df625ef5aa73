package util

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	t.Run("sniffs content and rewinds", func(t *testing.T) {
		r := bytes.NewReader([]byte("%PDF-1.7\n%rest of the document"))
		mimeType, err := DetectMIME(r, "upload.bin")
		require.NoError(t, err)
		require.Equal(t, "application/pdf", mimeType)

		head := make([]byte, 4)
		_, err = io.ReadFull(r, head)
		require.NoError(t, err)
		require.Equal(t, "%PDF", string(head))
	})

	t.Run("falls back to the extension for generic content", func(t *testing.T) {
		mimeType, err := DetectMIME(bytes.NewReader([]byte(`{"rate":1250}`)), "rates.json")
		require.NoError(t, err)
		require.Equal(t, "application/json", mimeType)
	})

	t.Run("empty content", func(t *testing.T) {
		mimeType, err := DetectMIME(bytes.NewReader(nil), "")
		require.NoError(t, err)
		require.Equal(t, "text/plain; charset=utf-8", mimeType)
	})
}

func TestImageMIME(t *testing.T) {
	t.Parallel()

	require.True(t, IsImageMIME(" IMAGE/PNG "))
	require.False(t, IsImageMIME("application/pdf"))
	require.True(t, IsDecodableImage("image/webp"))
	require.False(t, IsDecodableImage("image/svg+xml"))
}
