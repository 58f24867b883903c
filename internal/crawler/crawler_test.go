package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeuml/internal/diag"
	"typeuml/internal/extractor"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newCrawler(t *testing.T, opts Options) *Crawler {
	t.Helper()
	ext, err := extractor.NewExtractor("java")
	require.NoError(t, err)
	return NewCrawler(ext, opts)
}

func sampleRoot(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "src/com/a/B.java", "package com.a;\nclass B { A a; }\n")
	writeFile(t, root, "src/com/a/A.java", "package com.a;\nclass A {}\n")
	writeFile(t, root, "src/com/a/Legacy.java", "package com.a;\nclass Legacy {}\n")
	writeFile(t, root, "src/com/b/Info.java", "package com.b;\n")
	writeFile(t, root, "generated/G.java", "class G {}\n")
	writeFile(t, root, "target/T.java", "class T {}\n")
	writeFile(t, root, ".hidden/H.java", "class H {}\n")
	writeFile(t, root, "notes.txt", "class N {}\n")
	return root
}

func TestCrawler_Files(t *testing.T) {
	root := sampleRoot(t)

	t.Run("Skips ignored, hidden and build paths", func(t *testing.T) {
		files, err := newCrawler(t, Options{}).Files(root)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "src", "com", "a", "A.java"),
			filepath.Join(root, "src", "com", "a", "B.java"),
			filepath.Join(root, "src", "com", "a", "Legacy.java"),
			filepath.Join(root, "src", "com", "b", "Info.java"),
		}, files)
	})

	t.Run("Exclude patterns", func(t *testing.T) {
		files, err := newCrawler(t, Options{Exclude: []string{"Legacy.java", "src/com/b/"}}).Files(root)
		require.NoError(t, err)
		assert.Len(t, files, 2)
		for _, f := range files {
			assert.NotContains(t, f, "Legacy")
			assert.NotContains(t, f, "Info")
		}
	})

	t.Run("Single file root", func(t *testing.T) {
		path := filepath.Join(root, "src", "com", "a", "A.java")
		files, err := newCrawler(t, Options{}).Files(path)
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)

		files, err = newCrawler(t, Options{}).Files(filepath.Join(root, "notes.txt"))
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("Missing root", func(t *testing.T) {
		_, err := newCrawler(t, Options{}).Files(filepath.Join(root, "nope"))
		assert.Error(t, err)
	})
}

func TestCrawler_ScanProject(t *testing.T) {
	root := sampleRoot(t)
	writeFile(t, root, "src/com/a/Broken.java", "package com.a;\nclass Broken {\n  void oops( {\n}\n")
	empty := t.TempDir()
	missing := filepath.Join(empty, "missing")

	c := newCrawler(t, Options{Workers: 2})
	diags := diag.NewLog(nil)
	units, err := c.ScanProject(context.Background(), []string{root, empty, missing}, diags)
	require.NoError(t, err)

	t.Run("Units in path order", func(t *testing.T) {
		var names []string
		for _, u := range units {
			names = append(names, filepath.Base(u.Path))
		}
		assert.Equal(t, []string{"A.java", "B.java", "Broken.java", "Legacy.java", "Info.java"}, names)
		assert.Equal(t, "com.a", units[0].Package)
		assert.Empty(t, units[4].Types)
	})

	t.Run("Diagnostics", func(t *testing.T) {
		all := diags.All()
		require.Len(t, all, 3)
		assert.Equal(t, diag.ParseFailure, all[0].Kind)
		assert.Equal(t, filepath.Join(root, "src", "com", "a", "Broken.java"), all[0].Subject)
		assert.Contains(t, all[0].Detail, "partial declarations kept")
		assert.Equal(t, diag.Diagnostic{Kind: diag.EmptyRoot, Subject: empty, Detail: "0 source files, no type declarations"}, all[1])
		assert.Equal(t, diag.EmptyRoot, all[2].Kind)
		assert.Equal(t, missing, all[2].Subject)
	})
}

func TestCrawler_ScanProjectCancelled(t *testing.T) {
	root := sampleRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCrawler(t, Options{}).ScanProject(ctx, []string{root}, diag.NewLog(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
