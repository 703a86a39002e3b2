package knowledge

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	seq INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
`

// Options configures how documents are split and screened on ingestion
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Filter       ai.ContentFilter
}

// Match is a stored chunk recalled for a query
type Match struct {
	Source  string
	Seq     int
	Content string
	Score   float64
}

// Store is a SQLite-backed vector store of document chunks
type Store struct {
	db       *sql.DB
	path     string
	embedder Embedder
	opts     Options
}

// Open opens or creates the store at path, creating parent directories as needed
func Open(path string, embedder Embedder, opts Options) (*Store, error) {
	if embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = min(DefaultChunkOverlap, opts.ChunkSize/2)
	}
	if opts.Filter == nil {
		opts.Filter = ai.PassthroughFilter{}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &ai.IOError{Path: path, Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path, embedder: embedder, opts: opts}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path to the database file
func (s *Store) Path() string {
	return s.path
}

// Ingest splits text into chunks, embeds them, and replaces whatever was stored for source before. Documents the
// content filter flags as sensitive are skipped. Returns the number of chunks stored.
func (s *Store) Ingest(ctx context.Context, source, text string) (int, error) {
	if s.opts.Filter.Sensitive(text) {
		zap.S().Warnf("Skipping sensitive document %s", source)
		return 0, nil
	}

	chunks := Chunk(s.opts.Filter.Sanitize(text), s.opts.ChunkSize, s.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, source, err)
		}
		embeddings[i] = embedding
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source = ?", source); err != nil {
		return 0, fmt.Errorf("delete previous chunks of %s: %w", source, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, chunk := range chunks {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, source, seq, content, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.NewString(), source, i, chunk, encodeVector(embeddings[i]), now)
		if err != nil {
			return 0, fmt.Errorf("insert chunk %d of %s: %w", i, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit chunks of %s: %w", source, err)
	}

	zap.S().Debugf("Stored %d chunks of %s using %s", len(chunks), source, s.embedder.Name())
	return len(chunks), nil
}

// Recall returns up to limit chunks most similar to query, best first
func (s *Store) Recall(ctx context.Context, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT source, seq, content, embedding FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m    Match
			blob []byte
		)
		if err := rows.Scan(&m.Source, &m.Seq, &m.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		m.Score = cosineSimilarity(queryVec, decodeVector(blob))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Sources lists the distinct sources in the store with their chunk counts
func (s *Store) Sources(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT source, COUNT(*) FROM chunks GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := map[string]int{}
	for rows.Next() {
		var (
			source string
			count  int
		)
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources[source] = count
	}
	return sources, rows.Err()
}

// Chunk splits text into pieces of at most size runes, each overlapping the previous one by overlap runes
func Chunk(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); start += size - overlap {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}

// cosineSimilarity is zero for vectors of different lengths or zero magnitude
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
