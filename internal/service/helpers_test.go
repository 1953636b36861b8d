package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pixeldust/internal/config"
	"pixeldust/internal/models"
	"pixeldust/internal/repository/memory"
	"pixeldust/internal/security"
	"pixeldust/internal/storage"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func pngPayload(size int) []byte {
	out := make([]byte, size)
	copy(out, pngMagic)
	return out
}

// memBlobs is a BlobStore held in memory with per-key failure injection.
type memBlobs struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failPut    error
	failDelete map[string]error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, failDelete: map[string]error{}}
}

func (b *memBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil {
		return b.failPut
	}
	if _, ok := b.objects[key]; ok {
		return storage.ErrBlobExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *memBlobs) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, 0, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failDelete[key]; err != nil {
		return err
	}
	if _, ok := b.objects[key]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

var errDiskGone = errors.New("disk gone")

type harness struct {
	cfg      *config.AppConfig
	store    *memory.Store
	blobs    *memBlobs
	clock    time.Time
	auth     *AuthService
	sessions *SessionService
	settings *SettingsService
	quota    *QuotaAccountant
	uploads  *UploadService
	files    *FileService
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			TokenTTL:          time.Hour,
			PasswordAlgorithm: "bcrypt",
			BcryptCost:        bcrypt.MinCost,
		},
		Quota: config.QuotaConfig{
			AccountCeilingBytes: 1000 * config.MiB,
			ObjectCeilingBytes:  10 * config.MiB,
		},
		Upload: config.UploadConfig{
			DefaultNameLength: 8,
			NameRetries:       5,
			SniffContent:      true,
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	h := &harness{
		cfg:   testConfig(),
		store: memory.NewStore(),
		blobs: newMemBlobs(),
		clock: time.Now().UTC().Truncate(time.Second),
	}

	hasher := security.NewPasswordHasher(security.PasswordConfig{
		Algorithm:  h.cfg.Security.PasswordAlgorithm,
		BcryptCost: h.cfg.Security.BcryptCost,
	}, log)
	tokens := security.NewTokenIssuer(h.cfg.Security.JWTSecret).WithClock(func() time.Time { return h.clock })

	h.sessions = NewSessionService(h.store.Sessions(), log)
	h.settings = NewSettingsService(h.store.Settings(), log)
	h.auth = NewAuthService(h.store.Users(), h.store.Settings(), h.sessions, hasher, tokens, h.cfg, nil, log)
	h.quota = NewQuotaAccountant(h.store.Files(), h.cfg.Quota)
	h.uploads = NewUploadService(h.store.Files(), h.settings, h.quota, h.blobs, h.cfg, nil, log)
	h.files = NewFileService(h.store.Files(), h.store.Settings(), h.quota, h.blobs, nil, log)
	return h
}

func (h *harness) register(t *testing.T, name, email, password string) AuthResult {
	t.Helper()
	res, err := h.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Client:   ClientInfo{IPAddress: "127.0.0.1", UserAgent: "test"},
	})
	require.NoError(t, err)
	return res
}

func (h *harness) upload(t *testing.T, userID, name string, data []byte) models.File {
	t.Helper()
	file, err := h.uploads.Upload(context.Background(), UploadInput{
		UserID:       userID,
		OriginalName: name,
		ContentType:  "image/png",
		Body:         bytes.NewReader(data),
	})
	require.NoError(t, err)
	return file
}

// seedUsage records a file of size bytes without storing any bytes.
func (h *harness) seedUsage(t *testing.T, userID string, size int64) {
	t.Helper()
	_, err := h.store.Files().CreateWithinQuota(context.Background(), models.File{
		ID:           "seed-" + userID,
		UserID:       userID,
		Filename:     "seed-" + userID + ".png",
		OriginalName: "seed.png",
		FileType:     models.ContentTypePNG,
		FileSize:     size,
	}, h.cfg.Quota.AccountCeilingBytes)
	require.NoError(t, err)
}
