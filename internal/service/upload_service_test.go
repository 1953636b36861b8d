package service

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldust/internal/config"
	"pixeldust/internal/models"
	"pixeldust/internal/repository"
)

var publicName = regexp.MustCompile(`^[A-Za-z0-9]+\.[a-z0-9]+$`)

func TestUploadStoresBytesAndMetadata(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	data := pngPayload(2048)
	file := h.upload(t, alice.User.ID, "cat.png", data)

	assert.Regexp(t, publicName, file.Filename)
	assert.Len(t, strings.TrimSuffix(file.Filename, ".png"), 8)
	assert.Equal(t, "cat.png", file.OriginalName)
	assert.Equal(t, int64(2048), file.FileSize)
	assert.Equal(t, models.ContentTypePNG, file.FileType)
	assert.Zero(t, file.Views)
	assert.True(t, h.blobs.has(file.Filename))

	used, err := h.quota.CurrentUsage(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), used)
}

func TestUploadRejectsUnsupportedTypeBeforeIO(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	for _, ct := range []string{"image/webp", "text/html", "application/octet-stream", ""} {
		_, err := h.uploads.Upload(context.Background(), UploadInput{
			UserID:       alice.User.ID,
			OriginalName: "x.bin",
			ContentType:  ct,
			Body:         failingReader{},
		})
		assert.ErrorIs(t, err, ErrUnsupportedMediaType, ct)
	}
	assert.Zero(t, h.blobs.count())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { panic("body must not be read") }

func TestUploadRejectsMismatchedContent(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	_, err := h.uploads.Upload(context.Background(), UploadInput{
		UserID:       alice.User.ID,
		OriginalName: "cat.gif",
		ContentType:  "image/gif",
		Body:         bytes.NewReader(pngPayload(64)),
	})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	h.cfg.Upload.SniffContent = false
	_, err = h.uploads.Upload(context.Background(), UploadInput{
		UserID:       alice.User.ID,
		OriginalName: "cat.gif",
		ContentType:  "image/gif",
		Body:         bytes.NewReader(pngPayload(64)),
	})
	assert.NoError(t, err)
}

func TestUploadQuotaBoundary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fits := h.register(t, "Fits", "fits@example.com", "pw")
	over := h.register(t, "Over", "over@example.com", "pw")

	h.seedUsage(t, fits.User.ID, 998*config.MiB)
	h.seedUsage(t, over.User.ID, 999*config.MiB)
	payload := pngPayload(2 * config.MiB)

	h.upload(t, fits.User.ID, "a.png", payload)
	used, err := h.quota.CurrentUsage(ctx, fits.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000*config.MiB), used)

	_, err = h.uploads.Upload(ctx, UploadInput{
		UserID:       over.User.ID,
		OriginalName: "b.png",
		ContentType:  "image/png",
		Body:         bytes.NewReader(payload),
	})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	files, err := h.files.List(ctx, over.User.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1, "only the seeded record")
	assert.Equal(t, 1, h.blobs.count(), "only the accepted upload has bytes")
}

func TestAdmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com", "pw")
	h.seedUsage(t, alice.User.ID, 995*config.MiB)

	tests := []struct {
		size int64
		ok   bool
	}{
		{0, true},
		{5 * config.MiB, true},
		{5*config.MiB + 1, false},
		{10*config.MiB + 1, false},
	}
	for _, tt := range tests {
		err := h.quota.Admit(ctx, alice.User.ID, tt.size)
		if tt.ok {
			assert.NoError(t, err, tt.size)
		} else {
			assert.ErrorIs(t, err, ErrQuotaExceeded, tt.size)
		}
	}
	assert.ErrorIs(t, h.quota.Admit(ctx, alice.User.ID, -1), ErrInvalidInput)

	usage, err := h.quota.Usage(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5*config.MiB), usage.RemainingBytes)
}

func TestUploadObjectCeiling(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	_, err := h.uploads.Upload(context.Background(), UploadInput{
		UserID:       alice.User.ID,
		OriginalName: "huge.png",
		ContentType:  "image/png",
		Body:         bytes.NewReader(pngPayload(10*config.MiB + 1)),
	})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, h.blobs.count())
}

func TestUploadNameLengthResolution(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	up := func(length int) string {
		file, err := h.uploads.Upload(ctx, UploadInput{
			UserID:       alice.User.ID,
			OriginalName: "pic.PNG",
			ContentType:  "image/png",
			Body:         bytes.NewReader(pngPayload(16)),
			NameLength:   length,
		})
		require.NoError(t, err)
		return strings.TrimSuffix(file.Filename, ".png")
	}

	assert.Len(t, up(0), 8)
	assert.Len(t, up(12), 12)
	assert.Len(t, up(500), 64)

	settings := models.DefaultSettings(alice.User.ID)
	settings.URLLength = 20
	_, err := h.settings.Update(ctx, alice.User.ID, settings)
	require.NoError(t, err)
	assert.Len(t, up(0), 20)
	assert.Len(t, up(5), 5)
}

func TestUploadSanitizesSVG(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	doc := `<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"><script>alert(2)</script><rect width="1" height="1"/></svg>`
	file, err := h.uploads.Upload(ctx, UploadInput{
		UserID:       alice.User.ID,
		OriginalName: "logo.svg",
		ContentType:  "image/svg+xml",
		Body:         strings.NewReader(doc),
	})
	require.NoError(t, err)

	obj, err := h.files.Retrieve(ctx, file.Filename)
	require.NoError(t, err)
	defer obj.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(obj.Body)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "script")
	assert.NotContains(t, buf.String(), "onload")
	assert.Equal(t, int64(buf.Len()), file.FileSize)
}

func TestUploadBlobFailureRemovesMetadata(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com", "pw")
	h.blobs.failPut = errDiskGone

	_, err := h.uploads.Upload(ctx, UploadInput{
		UserID:       alice.User.ID,
		OriginalName: "cat.png",
		ContentType:  "image/png",
		Body:         bytes.NewReader(pngPayload(32)),
	})
	assert.ErrorIs(t, err, errDiskGone)

	files, err := h.files.List(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
}

type takenNames struct {
	FileRepository
	calls int
}

func (r *takenNames) CreateWithinQuota(ctx context.Context, file models.File, ceiling int64) (models.File, error) {
	r.calls++
	return models.File{}, repository.ErrFilenameTaken
}

func TestUploadNameRetriesExhausted(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	repo := &takenNames{FileRepository: h.store.Files()}
	uploads := NewUploadService(repo, h.settings, h.quota, h.blobs, h.cfg, nil, h.auth.log)

	_, err := uploads.Upload(context.Background(), UploadInput{
		UserID:       alice.User.ID,
		OriginalName: "cat.png",
		ContentType:  "image/png",
		Body:         bytes.NewReader(pngPayload(32)),
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, h.cfg.Upload.NameRetries, repo.calls)
	assert.Zero(t, h.blobs.count())
}

func TestUploadWithoutExtensionUsesTypeExtension(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	file, err := h.uploads.Upload(context.Background(), UploadInput{
		UserID:      alice.User.ID,
		ContentType: "image/jpeg",
		Body:        bytes.NewReader([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0}),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".jpg"))
	assert.Equal(t, file.Filename, file.OriginalName)
}
