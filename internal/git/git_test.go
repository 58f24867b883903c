package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiff(t *testing.T) {
	diff := `diff --git a/src/p/A.java b/src/p/A.java
index 1111111..2222222 100644
--- a/src/p/A.java
+++ b/src/p/A.java
@@ -3,0 +4,2 @@ class A {
+    B b;
+    C c;
@@ -10 +12 @@ class A {
-    int x;
+    long x;
diff --git a/src/p/Gone.java b/src/p/Gone.java
deleted file mode 100644
index 3333333..0000000
--- a/src/p/Gone.java
+++ /dev/null
@@ -1,2 +0,0 @@
-package p;
-class Gone {}
diff --git a/src/p/B.java b/src/p/B.java
--- a/src/p/B.java
+++ b/src/p/B.java
@@ -5,2 +4,0 @@
-    int y;
-    int z;
`
	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	assert.Equal(t, []ChangedFile{
		{Path: "src/p/A.java", ChangedLines: []int{4, 5, 12}},
		{Path: "src/p/B.java", ChangedLines: []int{}},
	}, changes)
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir, "-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestHeadAndChangedFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "A.java")
	require.NoError(t, os.WriteFile(path, []byte("class A {}\n"), 0o644))
	gitCmd(t, dir, "init", "-q")
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "init")

	ctx := context.Background()
	rev, err := Head(ctx, dir)
	require.NoError(t, err)
	assert.NotEmpty(t, rev)
	assert.NotContains(t, rev, "+dirty")

	require.NoError(t, os.WriteFile(path, []byte("class A {\n  B b;\n}\n"), 0o644))
	rev, err = Head(ctx, dir)
	require.NoError(t, err)
	assert.Contains(t, rev, "+dirty")

	changes, err := ChangedFiles(ctx, dir, "HEAD")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	top, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(changes[0].Path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(top, "A.java"), got)
	assert.NotEmpty(t, changes[0].ChangedLines)

	_, err = Head(ctx, t.TempDir())
	assert.Error(t, err)
}
