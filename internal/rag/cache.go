package rag

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/mgpai22/tubeqa/internal/logging"
	_ "modernc.org/sqlite"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	model      TEXT NOT NULL,
	text_hash  TEXT NOT NULL,
	vector     BLOB NOT NULL,
	dimension  INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (model, text_hash)
)`

// SQLiteCache persists document vectors keyed by model and text hash.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &SQLiteCache{db: db, path: path}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached vectors for texts; missing entries are nil.
func (c *SQLiteCache) Lookup(ctx context.Context, model string, texts []string) ([][]float32, error) {
	stmt, err := c.db.PrepareContext(ctx, "SELECT vector, dimension FROM embeddings WHERE model = ? AND text_hash = ?")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lookup: %w", err)
	}
	defer stmt.Close()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		var blob []byte
		var dimension int
		err := stmt.QueryRowContext(ctx, model, hashText(text)).Scan(&blob, &dimension)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cached vector: %w", err)
		}

		vec, err := blobToVector(blob)
		if err != nil || len(vec) != dimension {
			// corrupt rows are re-embedded
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// Store writes vectors in one transaction.
func (c *SQLiteCache) Store(ctx context.Context, model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch")
	}
	if len(texts) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO embeddings (model, text_hash, vector, dimension, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, vec := range vectors {
		if len(vec) == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, model, hashText(texts[i]), vectorToBlob(vec), len(vec), now); err != nil {
			return fmt.Errorf("failed to insert vector %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CachedEmbedder serves document vectors from the cache and embeds only
// what is missing. Queries always go to the provider. A failed cache write
// is logged and the fresh vectors are still returned.
type CachedEmbedder struct {
	Embedder
	cache  *SQLiteCache
	logger *logging.Logger
}

func NewCachedEmbedder(inner Embedder, cache *SQLiteCache, logger *logging.Logger) *CachedEmbedder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CachedEmbedder{Embedder: inner, cache: cache, logger: logger}
}

func (e *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.Embedder.Model()

	out, err := e.cache.Lookup(ctx, model, texts)
	if err != nil {
		return nil, err
	}

	var missing []string
	var missingIdx []int
	for i, vec := range out {
		if vec == nil {
			missing = append(missing, texts[i])
			missingIdx = append(missingIdx, i)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := e.Embedder.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(fresh))
	}
	for j, i := range missingIdx {
		out[i] = fresh[j]
	}

	if err := e.cache.Store(ctx, model, missing, fresh); err != nil {
		e.logger.Warnw("Failed to cache embeddings",
			"path", e.cache.path,
			"count", len(missing),
			"error", err,
		)
	}
	return out, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// little-endian float32s, 4 bytes each
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:i*4+4], math.Float32bits(v))
	}
	return blob
}

func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}

	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vector, nil
}
