package registry

import (
	"errors"
	"slices"
	"testing"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", nil},
		{"/", nil},
		{"//", nil},
		{"/a", []string{"a"}},
		{"a/b", []string{"a", "b"}},
		{"/a/b/", []string{"a", "b"}},
		{"/a//b", []string{"a", "b"}},
		{"/in-cse/~/x_y.z", []string{"in-cse", "~", "x_y.z"}},
	}

	for _, tt := range tests {
		got, err := splitPath(tt.path)
		if err != nil {
			t.Errorf("splitPath(%q) error = %v", tt.path, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("splitPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if _, err := splitPath("/a b"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("splitPath(/a b) error = %v, want ErrInvalidPath", err)
	}
}

func TestJoinPath(t *testing.T) {
	if got := joinPath(nil); got != "/" {
		t.Errorf("joinPath(nil) = %q, want /", got)
	}
	if got := joinPath([]string{"a", "b"}); got != "/a/b" {
		t.Errorf("joinPath(a, b) = %q, want /a/b", got)
	}
}
