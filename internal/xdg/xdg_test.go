package xdg

import (
	"path/filepath"
	"testing"
)

func TestDirsHonourXDGVariables(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))

	cases := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", ConfigDir, filepath.Join(tmp, "config", "bookr")},
		{"data", DataDir, filepath.Join(tmp, "data", "bookr")},
		{"cache", CacheDir, filepath.Join(tmp, "cache", "bookr")},
		{"config file", ConfigFile, filepath.Join(tmp, "config", "bookr", "config.json")},
	}
	for _, tc := range cases {
		got, err := tc.fn()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDirsFallBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")

	got, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	want := filepath.Join(home, ".local", "share", "bookr")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
