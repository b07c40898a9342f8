// Package bundle persists analysis outputs in a directory described by a manifest.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/statsketch/internal/utils"
	"github.com/google/uuid"
)

// Artifact kinds.
const (
	KindReport = "report"
	KindChart  = "chart"
	KindData   = "data"
)

// Bundle is a report directory and its manifest.json. Methods are safe for
// concurrent use, so workers may add artifacts to one bundle in parallel.
type Bundle struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Artifacts []*Artifact `json:"artifacts"`

	// Not serialized: on-disk location of the manifest
	rootDir string
	mu      sync.Mutex
}

// Artifact is one file inside a bundle. Path is relative to the bundle root.
type Artifact struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Size        int64     `json:"size"`
	AddedAt     time.Time `json:"added_at"`
}

// NewBundle constructs an in-memory bundle. Call Save() to persist.
func NewBundle(name, source, rootDir string) *Bundle {
	now := time.Now()
	return &Bundle{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   rootDir,
	}
}

// LoadBundle reads the manifest from dir.
func LoadBundle(dir string) (*Bundle, error) {
	path := filepath.Join(dir, utils.ManifestName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("bundle not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var bd Bundle
	if err := json.Unmarshal(b, &bd); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	bd.rootDir = dir
	return &bd, nil
}

// OpenOrCreate loads the bundle in dir, creating an empty one when no manifest exists yet.
func OpenOrCreate(name, source, dir string) (*Bundle, error) {
	bd, err := LoadBundle(dir)
	if err == nil {
		return bd, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	bd = NewBundle(name, source, dir)
	if err := bd.Save(); err != nil {
		return nil, err
	}
	return bd, nil
}

// RootDir returns the on-disk bundle directory path.
func (b *Bundle) RootDir() string { return b.rootDir }

// Abs resolves an artifact path against the bundle root.
func (b *Bundle) Abs(rel string) string { return filepath.Join(b.rootDir, filepath.FromSlash(rel)) }

// Save writes manifest.json using atomic write.
func (b *Bundle) Save() error {
	if b.rootDir == "" {
		return errors.New("bundle root directory not set")
	}
	if err := utils.EnsureDir(b.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.UpdatedAt = time.Now()
	sort.SliceStable(b.Artifacts, func(i, j int) bool { return b.Artifacts[i].Path < b.Artifacts[j].Path })
	data, err := utils.PrettyJSON(b)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(b.rootDir, utils.ManifestName), data)
}

// AddArtifact records a file already present under the bundle root.
// Re-adding a path refreshes its entry and keeps its ID.
func (b *Bundle) AddArtifact(kind, rel, description string) (*Artifact, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return nil, fmt.Errorf("artifact path %q escapes the bundle", rel)
	}
	info, err := os.Stat(b.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("artifact %q is a directory", rel)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.find(rel)
	if a == nil {
		a = &Artifact{ID: uuid.NewString(), Path: rel}
		b.Artifacts = append(b.Artifacts, a)
	}
	a.Kind = kind
	a.Description = strings.TrimSpace(description)
	a.Size = info.Size()
	a.AddedAt = time.Now()
	b.UpdatedAt = a.AddedAt
	return a, nil
}

// WriteArtifact stores data at rel inside the bundle and records it.
func (b *Bundle) WriteArtifact(kind, rel, description string, data []byte) (*Artifact, error) {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return nil, fmt.Errorf("artifact path %q escapes the bundle", rel)
	}
	path := b.Abs(rel)
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return nil, err
	}
	return b.AddArtifact(kind, rel, description)
}

// CopyArtifact copies an outside file into the bundle under dir.
func (b *Bundle) CopyArtifact(kind, src, dir, description string) (*Artifact, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return b.WriteArtifact(kind, filepath.ToSlash(filepath.Join(dir, filepath.Base(src))), description, data)
}

// Artifact returns the entry recorded for rel, if any.
func (b *Bundle) Artifact(rel string) (*Artifact, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.find(filepath.ToSlash(filepath.Clean(rel)))
	return a, a != nil
}

// ByKind lists artifacts of one kind ordered by path.
func (b *Bundle) ByKind(kind string) []*Artifact {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Artifact
	for _, a := range b.Artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (b *Bundle) find(rel string) *Artifact {
	for _, a := range b.Artifacts {
		if a.Path == rel {
			return a
		}
	}
	return nil
}
