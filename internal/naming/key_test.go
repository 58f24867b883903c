package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyOf(t *testing.T) {
	assert.Equal(t, Key("p1.A"), KeyOf("p1", "A", ""))
	assert.Equal(t, Key("A"), KeyOf("", "A", ""))
	assert.Equal(t, Key("p1.A$B"), KeyOf("p1", "B", "p1.A"))
	assert.Equal(t, Key("p1.A$B$C"), KeyOf("p1", "C", KeyOf("p1", "B", "p1.A")))
}

func TestOwnerOf(t *testing.T) {
	tests := []struct {
		key   Key
		owner Key
		ok    bool
	}{
		{"p1.A$B$C", "p1.A$B", true},
		{"p1.A$B", "p1.A", true},
		{"p1.A", "p1", true},
		{"a.b.c.A", "a.b.c", true},
		{"A$B", "A", true},
		{"A", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			owner, ok := OwnerOf(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.owner, owner)
		})
	}
}

func TestSimpleNameOf(t *testing.T) {
	assert.Equal(t, "C", SimpleNameOf("p1.A$B$C"))
	assert.Equal(t, "A", SimpleNameOf("p1.A"))
	assert.Equal(t, "A", SimpleNameOf("A"))
	assert.Equal(t, "Entry", SimpleName("Map.Entry"))
}

func TestPackageOf(t *testing.T) {
	assert.Equal(t, "a.b", PackageOf("a.b.A$B"))
	assert.Equal(t, "", PackageOf("A$B"))
	assert.Equal(t, Key("a.b.A"), TopLevel("a.b.A$B$C"))
}

func TestNestedSpellings(t *testing.T) {
	assert.Equal(t, []Key{"p.A.B", "p.A$B", "p$A$B"}, NestedSpellings("p.A.B"))
	assert.Equal(t, []Key{"Outer.Inner", "Outer$Inner"}, NestedSpellings("Outer.Inner"))
	assert.Equal(t, []Key{"Foo"}, NestedSpellings("Foo"))
}
