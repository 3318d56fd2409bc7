// Package sitemap 根据作品集目录生成带图片扩展的 sitemap.xml。
package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// 命名空间
const (
	NamespaceSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	NamespaceImage   = "http://www.google.com/schemas/sitemap-image/1.1"
)

// imageExtensions 收录的图片扩展名（不区分大小写）
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".avif": true,
}

// URLSet sitemap 根节点
type URLSet struct {
	XMLName    xml.Name `xml:"urlset"`
	Xmlns      string   `xml:"xmlns,attr"`
	XmlnsImage string   `xml:"xmlns:image,attr"`
	URLs       []URL    `xml:"url"`
}

// URL 单个页面条目
type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   string  `xml:"priority,omitempty"`
	Images     []Image `xml:"image:image"`
}

// Image 页面中的图片
type Image struct {
	Loc   string `xml:"image:loc"`
	Title string `xml:"image:title"`
}

// ListImages 列出目录中的图片文件名，按名称排序
//
// 目录不存在时返回空列表。
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read gallery dir: %w", err)
	}

	images := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			images = append(images, entry.Name())
		}
	}
	sort.Strings(images)
	return images, nil
}

// Build 构造站点根页面的 sitemap，每张图片一个 image:image 节点
func Build(siteURL string, images []string, now time.Time) *URLSet {
	siteURL = strings.TrimRight(siteURL, "/")

	root := URL{
		Loc:        siteURL + "/",
		LastMod:    now.UTC().Format("2006-01-02T15:04:05.000Z"),
		ChangeFreq: "weekly",
		Priority:   "1.0",
	}
	for _, name := range images {
		root.Images = append(root.Images, Image{
			Loc:   siteURL + "/gallery/" + escapeName(name),
			Title: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}

	return &URLSet{
		Xmlns:      NamespaceSitemap,
		XmlnsImage: NamespaceImage,
		URLs:       []URL{root},
	}
}

// Encode 以缩进格式写出 XML
func (s *URLSet) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Generate 扫描图片目录并写出 sitemap 文件，返回收录的图片数量
func Generate(siteURL, galleryDir, outFile string, now time.Time) (int, error) {
	images, err := ListImages(galleryDir)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	// 先写临时文件再重命名，避免读到半个文件
	tmp, err := os.CreateTemp(filepath.Dir(outFile), ".sitemap-*.xml")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Build(siteURL, images, now).Encode(tmp); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("chmod sitemap: %w", err)
	}
	if err := os.Rename(tmp.Name(), outFile); err != nil {
		return 0, fmt.Errorf("write sitemap: %w", err)
	}

	return len(images), nil
}

// escapeName 按 URL 组件规则转义文件名，空格编码为 %20
func escapeName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
