package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalResolveURL(t *testing.T) {
	root := t.TempDir()
	p := NewLocalProvider(root)

	dir := filepath.Join(root, "audio", "music")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	url, err := p.ResolveURL("audio", "music/track.mp3", time.Hour)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "music/track.mp3") {
		t.Errorf("unexpected url %q", url)
	}

	if _, err := p.ResolveURL("audio", "music/missing.mp3", time.Hour); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLocalListFiltersPrefix(t *testing.T) {
	root := t.TempDir()
	p := NewLocalProvider(root)

	for _, key := range []string{"music/a.mp3", "music/b.mp3", "jingles/c.mp3"} {
		path := filepath.Join(root, "audio", filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := p.List("audio", "music/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 under music/", keys)
	}
}
