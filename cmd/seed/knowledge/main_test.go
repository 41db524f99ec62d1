package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChunks(t *testing.T) {
	chunks, err := loadChunks(strings.NewReader(`
chunks:
  - id: a
    title: "  Rest  "
    tags: [recovery]
    content: "Sleep well."
  - id: empty
    title: Nothing
    content: "   "
`))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Rest", chunks[0].Title)
	assert.Equal(t, []string{"recovery"}, chunks[0].Tags)
}

func TestLoadChunksRejectsUnknownFields(t *testing.T) {
	_, err := loadChunks(strings.NewReader("chunks:\n  - id: a\n    body: oops\n"))
	assert.Error(t, err)
}

func TestBundledKnowledgeFile(t *testing.T) {
	f, err := os.Open("knowledge.yaml")
	require.NoError(t, err)
	defer f.Close()

	chunks, err := loadChunks(f)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Title)
	}
}
