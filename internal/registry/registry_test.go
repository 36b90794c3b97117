package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectRegistry_Register(t *testing.T) {
	r := NewProjectRegistry()

	r.Register("/work/jaffle", "jaffle_shop")

	assert.Equal(t, 1, r.Count(), "expected count 1")

	name, ok := r.PackageName("/work/jaffle")
	assert.True(t, ok, "expected to find package by root")
	assert.Equal(t, "jaffle_shop", name)
}

func TestProjectRegistry_RootFor(t *testing.T) {
	r := NewProjectRegistry()

	r.Register("/work/jaffle", "jaffle_shop")
	r.Register("/work/jaffle/subproject", "sub_shop")
	r.Register("/work/other", "other_shop")

	tests := []struct {
		name      string
		path      string
		wantRoot  string
		wantFound bool
	}{
		{
			name:      "document inside project",
			path:      "/work/jaffle/models/staging/stg_orders.sql",
			wantRoot:  "/work/jaffle",
			wantFound: true,
		},
		{
			name:      "nested project wins by longest prefix",
			path:      "/work/jaffle/subproject/models/orders.sql",
			wantRoot:  "/work/jaffle/subproject",
			wantFound: true,
		},
		{
			name:      "document at root itself",
			path:      "/work/other",
			wantRoot:  "/work/other",
			wantFound: true,
		},
		{
			name:      "sibling prefix does not match",
			path:      "/work/jaffle-archive/models/orders.sql",
			wantFound: false,
		},
		{
			name:      "outside any project",
			path:      "/tmp/scratch.sql",
			wantFound: false,
		},
		{
			name:      "empty path",
			path:      "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotRoot, gotFound := r.RootFor(tt.path)
			assert.Equal(t, tt.wantFound, gotFound, "RootFor(%q) found", tt.path)
			assert.Equal(t, tt.wantRoot, gotRoot, "RootFor(%q) root", tt.path)
		})
	}
}

func TestProjectRegistry_PackageFor(t *testing.T) {
	r := NewProjectRegistry()

	r.Register("/work/jaffle", "jaffle_shop")

	name, ok := r.PackageFor("/work/jaffle/models/orders.sql")
	assert.True(t, ok)
	assert.Equal(t, "jaffle_shop", name)

	_, ok = r.PackageFor("/elsewhere/orders.sql")
	assert.False(t, ok)
}

func TestProjectRegistry_Unregister(t *testing.T) {
	r := NewProjectRegistry()

	r.Register("/work/jaffle", "jaffle_shop")
	r.Unregister("/work/jaffle")

	_, ok := r.RootFor("/work/jaffle/models/orders.sql")
	assert.False(t, ok, "expected no root after unregister")
	assert.Equal(t, 0, r.Count())
}

func TestProjectRegistry_EmptyPackageName(t *testing.T) {
	r := NewProjectRegistry()

	// A root can be known without a package name; PackageName then misses
	// and callers fall back to the project's own name.
	r.Register("/work/unnamed", "")

	_, ok := r.PackageName("/work/unnamed")
	assert.False(t, ok)

	root, ok := r.RootFor("/work/unnamed/models/orders.sql")
	assert.True(t, ok)
	assert.Equal(t, "/work/unnamed", root)
}
