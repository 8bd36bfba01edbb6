package main

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/home"
	"github.com/jackzampolin/leaf/internal/layout"
	"github.com/jackzampolin/leaf/internal/raster"
	"github.com/jackzampolin/leaf/internal/sched"
)

var (
	renderScale  float64
	renderPages  string
	renderOutDir string
)

var renderCmd = &cobra.Command{
	Use:   "render <pdf>",
	Short: "Render document pages to PNG files",
	Long: `Render pages of a document to PNG files without a running server.

Pages render concurrently on the worker pool. Page numbers are 0-indexed.

Examples:
  leaf render book.pdf                      # Render every page
  leaf render book.pdf --pages 0-9          # Render the first ten pages
  leaf render book.pdf --pages 0,4,7        # Render specific pages
  leaf render book.pdf --scale 2.0          # Render at double resolution`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		doc, err := document.Open(args[0])
		if err != nil {
			return err
		}

		pages, err := parsePages(renderPages, doc.PageCount())
		if err != nil {
			return err
		}

		outDir := renderOutDir
		if outDir == "" {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			outDir = filepath.Join(h.ExportsDir(), base)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}

		pool := sched.NewPool(sched.PoolConfig{
			Name:       "render",
			Logger:     logger,
			Rasterizer: &raster.Placeholder{},
			QueueSize:  len(pages) + 1,
		})
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go pool.Start(ctx)

		reply := make(chan sched.Result, len(pages))
		for _, page := range pages {
			task := &sched.Task{
				Doc:      doc,
				Page:     page,
				Scale:    renderScale,
				Priority: layout.PriorityVisible,
				Reply:    reply,
			}
			if err := pool.Submit(task); err != nil {
				return err
			}
		}

		var failed int
		for range pages {
			select {
			case res := <-reply:
				if res.Err != nil {
					logger.Error("render failed", "page", res.Task.Page, "error", res.Err)
					failed++
					continue
				}
				name := filepath.Join(outDir, fmt.Sprintf("page_%04d.png", res.Task.Page))
				f, err := os.Create(name)
				if err != nil {
					return err
				}
				if err := png.Encode(f, res.Image); err != nil {
					f.Close()
					return fmt.Errorf("failed to encode %s: %w", name, err)
				}
				if err := f.Close(); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d pages failed to render", failed, len(pages))
		}
		fmt.Printf("Rendered %d pages to %s\n", len(pages), outDir)
		return nil
	},
}

// parsePages expands a page spec ("all", "3", "1-5", "0,2,7") into a page
// list, rejecting pages outside [0, count).
func parsePages(spec string, count int) ([]int, error) {
	if spec == "" || spec == "all" {
		pages := make([]int, count)
		for i := range pages {
			pages[i] = i
		}
		return pages, nil
	}

	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			end, err := strconv.Atoi(hi)
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			for p := start; p <= end; p++ {
				pages = append(pages, p)
			}
		} else {
			p, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page %q", part)
			}
			pages = append(pages, p)
		}
	}

	for _, p := range pages {
		if p < 0 || p >= count {
			return nil, fmt.Errorf("page %d out of range [0, %d)", p, count)
		}
	}
	return pages, nil
}

func init() {
	renderCmd.Flags().Float64Var(&renderScale, "scale", 1.0, "render scale")
	renderCmd.Flags().StringVar(&renderPages, "pages", "all", "pages to render (e.g. 0-9 or 0,4,7)")
	renderCmd.Flags().StringVar(&renderOutDir, "out-dir", "", "output directory (default: <home>/exports/<name>)")

	rootCmd.AddCommand(renderCmd)
}
