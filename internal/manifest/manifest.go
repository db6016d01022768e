package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FileName is the manifest written next to the build artifacts.
const FileName = "manifest.json"

// BuildManifest records the artifacts of one build and the documents that went into them.
type BuildManifest struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Ref       string     `json:"ref"`
	Status    string     `json:"status"`
	Duration  int64      `json:"duration_ms"`
	Artifacts []Artifact `json:"artifacts"`
	Documents []Document `json:"documents"`
	Failures  []Failure  `json:"failures,omitempty"`
}

// Artifact is one written variant/mode output.
type Artifact struct {
	Variant         string `json:"variant"`
	Mode            string `json:"mode"`
	File            string `json:"file"`
	SizeBytes       int    `json:"size_bytes"`
	EstimatedTokens int    `json:"estimated_tokens"`
	SHA256          string `json:"sha256"`
}

// Document is a corpus document included in at least one artifact.
type Document struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
}

// Failure records a variant/mode that could not be built.
type Failure struct {
	Variant string `json:"variant"`
	Mode    string `json:"mode"`
	Reason  string `json:"reason"`
}

// New starts a manifest with a fresh build id.
func New(ref string, started time.Time) *BuildManifest {
	return &BuildManifest{ID: uuid.NewString(), Timestamp: started.UTC(), Ref: ref}
}

// AddArtifact records an artifact and hashes its content.
func (m *BuildManifest) AddArtifact(variant, mode, file string, content []byte, tokens int) {
	sum := sha256.Sum256(content)
	m.Artifacts = append(m.Artifacts, Artifact{
		Variant:         variant,
		Mode:            mode,
		File:            file,
		SizeBytes:       len(content),
		EstimatedTokens: tokens,
		SHA256:          hex.EncodeToString(sum[:]),
	})
}

// AddDocument records an included document. Repeated paths are kept once.
func (m *BuildManifest) AddDocument(path, fingerprint string) {
	for _, d := range m.Documents {
		if d.Path == path {
			return
		}
	}
	m.Documents = append(m.Documents, Document{Path: path, Fingerprint: fingerprint})
}

// AddFailure records a variant/mode that failed.
func (m *BuildManifest) AddFailure(variant, mode, reason string) {
	m.Failures = append(m.Failures, Failure{Variant: variant, Mode: mode, Reason: reason})
}

// Finish sets the status and duration and sorts every list so output does not depend
// on build scheduling.
func (m *BuildManifest) Finish(finished time.Time) {
	m.Duration = finished.Sub(m.Timestamp).Milliseconds()
	m.Status = "success"
	if len(m.Failures) > 0 {
		m.Status = "failed"
	}
	sort.Slice(m.Artifacts, func(i, j int) bool {
		if m.Artifacts[i].Variant != m.Artifacts[j].Variant {
			return m.Artifacts[i].Variant < m.Artifacts[j].Variant
		}
		return m.Artifacts[i].Mode < m.Artifacts[j].Mode
	})
	sort.Slice(m.Documents, func(i, j int) bool { return m.Documents[i].Path < m.Documents[j].Path })
	sort.Slice(m.Failures, func(i, j int) bool {
		if m.Failures[i].Variant != m.Failures[j].Variant {
			return m.Failures[i].Variant < m.Failures[j].Variant
		}
		return m.Failures[i].Mode < m.Failures[j].Mode
	})
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Write stores the manifest as FileName inside dir.
func (m *BuildManifest) Write(dir string) (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Hash returns a digest of the artifacts and documents, ignoring id and timing.
// Two builds from identical inputs hash identically.
func (m *BuildManifest) Hash() (string, error) {
	data, err := json.Marshal(struct {
		Ref       string     `json:"ref"`
		Artifacts []Artifact `json:"artifacts"`
		Documents []Document `json:"documents"`
	}{m.Ref, m.Artifacts, m.Documents})
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
