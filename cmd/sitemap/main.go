package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"photosite/backend/internal/config"
	"photosite/backend/internal/logger"
	"photosite/backend/internal/sitemap"
)

var (
	// 路径
	galleryDir string
	outFile    string

	// 站点
	siteURL string

	// 监听
	watch bool
	debug bool

	rootCmd = &cobra.Command{
		Use:   "sitemap [flags]",
		Short: "Generate sitemap.xml for the photo gallery",
		Long: `sitemap scans the gallery directory and writes a sitemap.xml with one image entry per photo.

Examples:
  sitemap                                         # Use ./public/gallery and ./public/sitemap.xml
  sitemap --site https://www.example.com          # Override the site URL
  sitemap --dir ./photos --out ./dist/sitemap.xml # Custom paths
  sitemap --watch                                 # Regenerate whenever the gallery changes`,
		SilenceUsage: true,
		RunE:         runGenerate,
	}
)

func init() {
	defaultSite := os.Getenv("SITE_URL")
	if defaultSite == "" {
		defaultSite = "https://www.example.com"
	}

	rootCmd.Flags().StringVar(&galleryDir, "dir", filepath.Join("public", "gallery"), "Gallery directory to scan")
	rootCmd.Flags().StringVar(&outFile, "out", filepath.Join("public", "sitemap.xml"), "Output file")
	rootCmd.Flags().StringVar(&siteURL, "site", defaultSite, "Site root URL (env SITE_URL)")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "Watch the gallery directory and regenerate on change")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	level := "info"
	if debug {
		level = "debug"
	}
	log, err := logger.New(config.LogConfig{Level: level, Development: true})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	generate := func() error {
		count, err := sitemap.Generate(siteURL, galleryDir, outFile, time.Now())
		if err != nil {
			return err
		}
		log.Info("sitemap generated",
			zap.Int("images", count),
			zap.String("out", outFile),
		)
		return nil
	}

	if err := generate(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("watching gallery", zap.String("dir", galleryDir))
	return sitemap.Watch(ctx, galleryDir, generate, log)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
