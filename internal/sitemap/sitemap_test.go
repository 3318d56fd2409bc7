package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "notes.txt", "c.avif", "d.webp"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	images, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.JPG", "c.avif", "d.webp"}, images)
}

func TestListImages_MissingDir(t *testing.T) {
	images, err := ListImages(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := Build("https://www.example.com/", []string{"Sunset Beach.jpg", "a&b.png"}, now)

	require.Len(t, set.URLs, 1)
	root := set.URLs[0]
	assert.Equal(t, "https://www.example.com/", root.Loc)
	assert.Equal(t, "2025-06-01T12:00:00.000Z", root.LastMod)
	assert.Equal(t, "weekly", root.ChangeFreq)
	assert.Equal(t, "1.0", root.Priority)

	require.Len(t, root.Images, 2)
	assert.Equal(t, "https://www.example.com/gallery/Sunset%20Beach.jpg", root.Images[0].Loc)
	assert.Equal(t, "Sunset Beach", root.Images[0].Title)
	assert.Equal(t, "https://www.example.com/gallery/a%26b.png", root.Images[1].Loc)
}

func TestEncode(t *testing.T) {
	set := Build("https://www.example.com", []string{"one.jpg"}, time.Unix(0, 0))

	var buf bytes.Buffer
	require.NoError(t, set.Encode(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)
	assert.Contains(t, out, `xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`)
	assert.Contains(t, out, "<image:loc>https://www.example.com/gallery/one.jpg</image:loc>")
	assert.Contains(t, out, "<image:title>one</image:title>")

	var decoded struct {
		URLs []struct {
			Loc string `xml:"loc"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.URLs, 1)
	assert.Equal(t, "https://www.example.com/", decoded.URLs[0].Loc)
}

func TestGenerate(t *testing.T) {
	gallery := t.TempDir()
	touch(t, gallery, "one.jpg")
	touch(t, gallery, "two.png")

	out := filepath.Join(t.TempDir(), "public", "sitemap.xml")
	count, err := Generate("https://www.example.com", gallery, out, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "<image:image>"))

	// 目录不存在时仍生成只含根页面的 sitemap
	count, err = Generate("https://www.example.com", filepath.Join(gallery, "missing"), out, time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWatch(t *testing.T) {
	gallery := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, gallery, func() error {
			select {
			case changed <- struct{}{}:
			default:
			}
			return nil
		}, nil)
	}()

	// 轮询间隔大于去抖时间，保证每次写入后回调有机会触发
	require.Eventually(t, func() bool {
		touch(t, gallery, "new.jpg")
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 10*time.Second, time.Second)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
