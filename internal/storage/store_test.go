package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(&config.StorageConfig{
		BaseDir:        t.TempDir(),
		PublicPrefix:   "/uploads",
		MaxUploadBytes: 10 << 20,
	}, zap.NewNop())
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveReencodesAsJPEG(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save("recibo almoço.png", pngBytes(t, 100, 60))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(saved.Name, ".jpg"))
	assert.True(t, strings.HasPrefix(saved.URL, "/uploads/"))
	assert.NotContains(t, saved.Name, " ")

	data, err := os.ReadFile(filepath.Join(store.config.BaseDir, saved.Name))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestSaveResizesOversizedImages(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save("panorama.png", pngBytes(t, 3200, 800))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.config.BaseDir, saved.Name))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), maxDimension)
	assert.LessOrEqual(t, img.Bounds().Dy(), maxDimension)
}

func TestSaveRejectsBadInput(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("notes.txt", []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = store.Save("recibo.png", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = store.Save("recibo.png", []byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	store.config.MaxUploadBytes = 10
	_, err = store.Save("recibo.png", pngBytes(t, 100, 60))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSaveKeepsWebpRaw(t *testing.T) {
	store := newTestStore(t)

	payload := []byte("RIFF....WEBPVP8 ")
	saved, err := store.Save("recibo.webp", payload)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(saved.Name, ".webp"))

	data, err := os.ReadFile(filepath.Join(store.config.BaseDir, saved.Name))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestRemoveMissingFile(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Remove("nope.jpg"))
}

func TestStripDataURL(t *testing.T) {
	assert.Equal(t, "abc123", stripDataURL("data:image/png;base64,abc123"))
	assert.Equal(t, "abc123", stripDataURL("abc123"))
}
