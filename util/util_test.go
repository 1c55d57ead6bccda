package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericHelpers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(3, Abs(-3))
	assert.Equal(2.5, Abs(2.5))
	assert.Equal(1, Min3(3, 1, 2))
	assert.Equal(1.5, Min3(1.5, 2.0, 1.5))
	assert.Equal(6, Sum([]int{1, 2, 3}))
	assert.Equal(0.0, Sum([]float64{}))
	assert.Equal([]string{"a", "b", "c"}, GetKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}

func TestGatherImagePaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page2.png", "page1.PNG", "notes.txt", "sub/page3.jpg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte{0}, 0644))
	}

	paths, err := GatherImagePaths(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "page1.PNG"),
		filepath.Join(dir, "page2.png"),
		filepath.Join(dir, "sub", "page3.jpg"),
	}, paths)

	single, err := GatherImagePaths(filepath.Join(dir, "page2.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "page2.png")}, single)
}
