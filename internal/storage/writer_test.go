package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

func TestWriterService_WritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "posts.ndjson")
	ch := make(chan domain.Post)
	var wg sync.WaitGroup
	wg.Add(1)
	go (&WriterService{FilePath: path}).Start(&wg, ch)

	ch <- samplePost("t3_a")
	ch <- domain.Post{ID: "t1_b", Type: domain.PostComment, Parent: "t3_a"}
	close(ch)
	wg.Wait()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []domain.Post
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var p domain.Post
		require.NoError(t, json.Unmarshal(sc.Bytes(), &p))
		got = append(got, p)
	}
	require.NoError(t, sc.Err())
	require.Len(t, got, 2)
	assert.Equal(t, "t3_a", got[0].ID)
	assert.Nil(t, got[0].SrcData)
	assert.Equal(t, domain.PostComment, got[1].Type)
	assert.Equal(t, "t3_a", got[1].Parent)
}

func TestWriterService_DrainsWhenFileUnusable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	ch := make(chan domain.Post)
	var wg sync.WaitGroup
	wg.Add(1)
	go (&WriterService{FilePath: filepath.Join(blocker, "posts.ndjson")}).Start(&wg, ch)

	ch <- samplePost("t3_a")
	ch <- samplePost("t3_b")
	close(ch)
	wg.Wait()
}
