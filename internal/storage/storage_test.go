package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/service"
)

func TestValidateName(t *testing.T) {
	valid := []string{"document_001.docx", "carta.txt", ".hidden"}
	for _, name := range valid {
		assert.NoError(t, validateName(name), name)
	}

	invalid := []string{"", "  ", "..", ".", "a/b.docx", `a\b.docx`, "../x"}
	for _, name := range invalid {
		assert.Error(t, validateName(name), name)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	locator, err := store.Put(ctx, "document_001.txt", []byte("Hola Anna"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "document_001.txt"), locator)

	data, err := store.Get(ctx, locator)
	require.NoError(t, err)
	assert.Equal(t, "Hola Anna", string(data))

	data, err = store.Get(ctx, "document_001.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hola Anna", string(data))

	_, err = store.Put(ctx, "document_001.txt", []byte("Hola Pere"))
	require.NoError(t, err)
	data, err = store.Get(ctx, "document_001.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hola Pere", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")

	_, err = store.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.Put(ctx, "../escape.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "textami.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first, err := store.Put(ctx, "plantilla.docx", []byte("v1"))
	require.NoError(t, err)
	second, err := store.Put(ctx, "plantilla.docx", []byte("v2"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	data, err := store.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	data, err = store.Get(ctx, "plantilla.docx")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "name lookups return the newest document")

	empty, err := store.Put(ctx, "buit.txt", nil)
	require.NoError(t, err)
	data, err = store.Get(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLiteStoreMigrations(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var indexCount int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_documents_name'`).Scan(&indexCount))
	assert.Equal(t, 1, indexCount)
}

func TestSQLiteStoreConcurrentPuts(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Put(ctx, "document.txt", []byte("x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestDriveStore(t *testing.T) {
	var (
		mu      sync.Mutex
		uploads = map[string][]byte{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			uploads["file-1"] = body
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"file-1"}`))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files/file-1"):
			assert.Equal(t, "media", r.URL.Query().Get("alt"))
			_, _ = w.Write([]byte("contingut"))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"File not found"}}`))
		}
	}))
	defer srv.Close()

	svc, err := drive.NewService(context.Background(), option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	var store service.BlobStore = NewDriveStore(svc, "folder-9")
	ctx := context.Background()

	id, err := store.Put(ctx, "document_001.docx", []byte("contingut"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)
	mu.Lock()
	assert.Contains(t, string(uploads["file-1"]), "contingut")
	assert.Contains(t, string(uploads["file-1"]), "folder-9")
	mu.Unlock()

	data, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "contingut", string(data))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
