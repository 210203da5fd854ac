package objectstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyConstruction(t *testing.T) {
	require.Equal(t, "raw/42/003.htm", RawKey(42, "003.htm"))
	require.Equal(t, "metadata/42.json", MetadataKey(42))
	require.Equal(t, "embeddings/42.jsonl", EmbeddingsKey(42))
}

func TestPublicURL(t *testing.T) {
	s := &Store{bucket: "islamic-library", endpoint: "objects.example.com", scheme: "https"}
	require.Equal(t, "https://objects.example.com/islamic-library/raw/1/001.htm", s.PublicURL(RawKey(1, "001.htm")))
}

func TestPublicURLHTTPScheme(t *testing.T) {
	s := &Store{bucket: "b", endpoint: "localhost:9000", scheme: "http"}
	require.Equal(t, "http://localhost:9000/b/metadata/7.json", s.PublicURL(MetadataKey(7)))
}
