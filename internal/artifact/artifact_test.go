package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReferencesRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	refs := []PostReference{
		{Urn: "urn:li:activity:1", Url: "https://www.linkedin.com/feed/update/urn:li:activity:1/", RawPostedAt: "3d"},
		{Urn: "urn:li:activity:2", Url: "https://www.linkedin.com/feed/update/urn:li:activity:2/", RawPostedAt: "1w"},
	}
	require.NoError(t, store.WriteReferences(refs))

	got, err := store.ReadReferences()
	require.NoError(t, err)
	require.Equal(t, refs, got)
}

func TestReadMissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.ReadReferences()
	require.ErrorIs(t, err, ErrNoArtifact)
	_, err = store.ReadEnriched()
	require.ErrorIs(t, err, ErrNoArtifact)
}

func TestReadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	err := os.WriteFile(
		filepath.Join(dir, "posts.json"),
		[]byte(`[{"urn":"urn:li:activity:1","url":"u","raw_posted_at":"3d","surprise":true}]`),
		0644,
	)
	require.NoError(t, err)

	_, err = store.ReadReferences()
	require.Error(t, err)
}

func TestReadRejectsEmptyUrn(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	err := os.WriteFile(
		filepath.Join(dir, "posts.json"),
		[]byte(`[{"urn":"","url":"u","raw_posted_at":"3d"}]`),
		0644,
	)
	require.NoError(t, err)

	_, err = store.ReadReferences()
	require.Error(t, err)
}

func TestReadEnrichedEnforcesPositiveImpressions(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	err := os.WriteFile(
		filepath.Join(dir, "enriched.json"),
		[]byte(`[{"urn":"urn:li:activity:1","url":"u","raw_posted_at":"3d","content":"c","image_url":"","likes":1,"comments":0,"reposts":0,"impressions":0}]`),
		0644,
	)
	require.NoError(t, err)

	_, err = store.ReadEnriched()
	require.Error(t, err)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.WriteReferences([]PostReference{
		{Urn: "urn:li:activity:1", Url: "u1", RawPostedAt: "3d"},
	}))
	require.NoError(t, store.WriteReferences([]PostReference{
		{Urn: "urn:li:activity:2", Url: "u2", RawPostedAt: "1h"},
	}))

	// the write staged through a temp file and renamed it into place
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "posts.json", entries[0].Name())
}

func TestWriteOverwritesWholesale(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.WriteReferences([]PostReference{
		{Urn: "urn:li:activity:1", Url: "u1", RawPostedAt: "3d"},
		{Urn: "urn:li:activity:2", Url: "u2", RawPostedAt: "4d"},
	}))
	require.NoError(t, store.WriteReferences([]PostReference{
		{Urn: "urn:li:activity:3", Url: "u3", RawPostedAt: "1h"},
	}))

	got, err := store.ReadReferences()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "urn:li:activity:3", got[0].Urn)
}
