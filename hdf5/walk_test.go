package hdf5

import (
	"errors"
	"testing"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/foo", []string{"foo"}},
		{"/foo/bar/", []string{"foo", "bar"}},
		{"foo/bar", []string{"foo", "bar"}},
		{"/a/./b//c", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := splitPath(tt.path)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestWalkReportsLinks(t *testing.T) {
	f := openTestdata(t, "links.h5")

	var groups, datasets []string
	failed := map[string]*Link{}
	err := Walk(f.Root(), func(path string, obj interface{}, err error) error {
		if err != nil {
			l, _ := obj.(*Link)
			failed[path] = l
			return nil
		}
		switch obj.(type) {
		case *Group:
			groups = append(groups, path)
		case *Dataset:
			datasets = append(datasets, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(groups) == 0 || groups[0] != "/" {
		t.Errorf("expected walk to start at root, got groups %v", groups)
	}
	for _, want := range []string{"/entry/image", "/soft", "/ext"} {
		if !containsString(datasets, want) {
			t.Errorf("datasets %v missing %s", datasets, want)
		}
	}
	if !containsString(groups, "/soft_group") {
		t.Errorf("groups %v missing /soft_group", groups)
	}

	tests := map[string]struct {
		typ    LinkType
		target string
	}{
		"/dangling":    {SoftLink, "/missing"},
		"/ext_missing": {ExternalLink, "/data"},
	}
	for p, want := range tests {
		l, ok := failed[p]
		if !ok {
			t.Errorf("walk did not report %s", p)
			continue
		}
		if l == nil || l.Type != want.typ || l.Target != want.target {
			t.Errorf("%s reported link %+v, want %v -> %s", p, l, want.typ, want.target)
		}
	}
}

func TestWalkSkipGroup(t *testing.T) {
	f := openTestdata(t, "links.h5")

	var visited []string
	err := Walk(f.Root(), func(path string, obj interface{}, err error) error {
		visited = append(visited, path)
		if _, ok := obj.(*Group); ok && path != "/" {
			return SkipGroup
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if containsString(visited, "/entry/image") {
		t.Errorf("walk descended into skipped /entry: %v", visited)
	}
	if !containsString(visited, "/entry") {
		t.Errorf("walk did not visit /entry: %v", visited)
	}
}

func TestWalkStop(t *testing.T) {
	f := openTestdata(t, "links.h5")

	stop := errors.New("stop")
	count := 0
	err := Walk(f.Root(), func(string, interface{}, error) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Walk error = %v, want stop", err)
	}
	if count != 2 {
		t.Errorf("callback ran %d times, want 2", count)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
