// Package artifact owns the JSON documents the pipelines exchange: the
// reference list produced by collection and the enriched list produced
// by enrichment. Both are overwritten wholesale per run and decoded
// fail-closed, a document that doesn't match the schema is rejected
// rather than coerced.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNoArtifact = errors.New("artifact does not exist")

// PostReference identifies one feed item. RawPostedAt is the platform's
// relative-time string carried verbatim, it is never parsed.
type PostReference struct {
	Urn         string `json:"urn"`
	Url         string `json:"url"`
	RawPostedAt string `json:"raw_posted_at"`
}

// EnrichedPost is a reference plus the metrics extracted from its detail
// view. Impressions is strictly positive; zero-impression items never
// reach this type's artifact.
type EnrichedPost struct {
	Urn         string `json:"urn"`
	Url         string `json:"url"`
	RawPostedAt string `json:"raw_posted_at"`
	Content     string `json:"content"`
	ImageUrl    string `json:"image_url"`
	Likes       int64  `json:"likes"`
	Comments    int64  `json:"comments"`
	Reposts     int64  `json:"reposts"`
	Impressions int64  `json:"impressions"`
}

const (
	referencesFile = "posts.json"
	enrichedFile   = "enriched.json"
)

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ReferencesPath() string {
	return filepath.Join(s.dir, referencesFile)
}

func (s *Store) EnrichedPath() string {
	return filepath.Join(s.dir, enrichedFile)
}

func (s *Store) WriteReferences(refs []PostReference) error {
	return s.write(s.ReferencesPath(), refs)
}

func (s *Store) ReadReferences() ([]PostReference, error) {
	var refs []PostReference
	err := s.read(s.ReferencesPath(), &refs)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Urn == "" {
			return nil, fmt.Errorf("invalid reference artifact: empty urn")
		}
	}
	return refs, nil
}

func (s *Store) WriteEnriched(posts []EnrichedPost) error {
	return s.write(s.EnrichedPath(), posts)
}

func (s *Store) ReadEnriched() ([]EnrichedPost, error) {
	var posts []EnrichedPost
	err := s.read(s.EnrichedPath(), &posts)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		if post.Urn == "" {
			return nil, fmt.Errorf("invalid enriched artifact: empty urn")
		}
		if post.Impressions <= 0 {
			return nil, fmt.Errorf("invalid enriched artifact: impressions %d on %s", post.Impressions, post.Urn)
		}
	}
	return posts, nil
}

// write replaces the artifact atomically: a reader concurrent with a
// harvest sees either the old document or the new one, never a torn mix.
func (s *Store) write(path string, v any) error {
	err := os.MkdirAll(s.dir, 0755)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) read(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ErrNoArtifact
	}
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	err = decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("invalid artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}
