package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/cutplane/chaptercut/internal/cache"
	"github.com/cutplane/chaptercut/internal/chapters"
	"github.com/cutplane/chaptercut/internal/config"
	"github.com/cutplane/chaptercut/internal/cut"
	"github.com/cutplane/chaptercut/internal/extractor"
	"github.com/cutplane/chaptercut/internal/media"
	"github.com/cutplane/chaptercut/internal/probe"
	"github.com/cutplane/chaptercut/internal/repository"
	"github.com/cutplane/chaptercut/internal/server"
	"github.com/cutplane/chaptercut/internal/session"
	"github.com/cutplane/chaptercut/internal/timecode"
)

type app struct {
	cfg  *config.Config
	repo *repository.Repo
	ex   *extractor.Extractor

	close func()
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	db, err := repository.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	repo := repository.NewRepo(db)
	fc := cache.NewFileCache(cfg, repo)
	client := media.NewClient(cfg.DownloadFormat, cfg.MaxFileSizeMB)
	cutter := cut.New(cfg.FFmpegPath)

	ex := extractor.New(cfg, client, client, extractor.ProberFunc(probe.Probe), cutter, fc, repo)
	return &app{cfg: cfg, repo: repo, ex: ex, close: func() { _ = db.Close() }}, nil
}

var (
	flagChapter int
	flagFirst   bool
	flagAll     bool
	flagAddr    string
)

var rootCmd = &cobra.Command{
	Use:           "chaptercut",
	Short:         "Cut YouTube videos into chapters listed in their descriptions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "List the chapters found in a video's description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		an, err := a.ex.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", an.Info.Title, timecode.Pretty(an.Info.DurationSec))
		if len(an.Chapters) == 0 {
			fmt.Println("no chapters found in description")
			return nil
		}
		for i, m := range an.Chapters {
			fmt.Printf("  %2d  %7s  %s\n", i+1, timecode.Format(m.Time.Seconds()), m.Title)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Download and cut the selected chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		sel := chapters.SelectAll()
		switch {
		case cmd.Flags().Changed("chapter"):
			sel = chapters.SelectIndex(flagChapter - 1)
		case flagFirst:
			sel = chapters.SelectFirst()
		}

		res, err := a.ex.ExtractChapters(cmd.Context(), args[0], sel, func(pct float64, msg string) {
			fmt.Printf("\r\033[K[%5.1f%%] %s", pct, msg)
		})
		fmt.Println()
		if err != nil {
			return err
		}

		for _, cr := range res.Results {
			if cr.Err != nil {
				fmt.Printf("  FAILED  %s: %v\n", cr.Marker.Title, cr.Err)
				continue
			}
			fmt.Printf("  ok      %s\n", cr.OutputPath)
		}
		if res.Succeeded() == 0 {
			return errors.New("no chapters were extracted")
		}
		fmt.Printf("extracted %d/%d chapters to %s\n", res.Succeeded(), len(res.Results), a.cfg.OutputDir)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download the complete video without cutting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		dst, err := a.ex.DownloadFull(cmd.Context(), args[0], func(pct float64, msg string) {
			fmt.Printf("\r\033[K[%5.1f%%] %s", pct, msg)
		})
		fmt.Println()
		if err != nil {
			return err
		}
		fmt.Printf("saved %s\n", dst)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		addr := flagAddr
		if addr == "" {
			addr = a.cfg.ListenAddr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.New(a.ex, a.repo),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale session directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		ttl := time.Duration(cfg.SessionTTLMin) * time.Minute
		n, err := session.SweepStale(cfg.DataDir, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d stale session directories\n", n)
		return nil
	},
}

func init() {
	extractCmd.Flags().IntVar(&flagChapter, "chapter", 0, "extract only this chapter (1-based)")
	extractCmd.Flags().BoolVar(&flagFirst, "first", false, "extract only the first chapter")
	extractCmd.Flags().BoolVar(&flagAll, "all", true, "extract every chapter")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
