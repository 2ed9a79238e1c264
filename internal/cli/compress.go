package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/compress/client"
	"image-compressor/internal/domain"
	"image-compressor/internal/preset"
)

type compressFlags struct {
	presetName     string
	outDir         string
	maxSizeMB      float64
	maxEdge        int
	quality        float64
	keepResolution bool
}

func newCompressCmd() *cobra.Command {
	var flags compressFlags

	cmd := &cobra.Command{
		Use:   "compress [files...]",
		Short: "Compress image files in place or into a directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.presetName, "preset", "standard", "Compression preset: "+strings.Join(preset.Names(), ", "))
	f.StringVar(&flags.outDir, "out", "", "Output directory (default: next to each source file)")
	f.Float64Var(&flags.maxSizeMB, "max-size-mb", 0, "Override the size budget in megabytes")
	f.IntVar(&flags.maxEdge, "max-edge", 0, "Override the longest-edge cap in pixels")
	f.Float64Var(&flags.quality, "quality", 0, "Override the initial quality (0..1)")
	f.BoolVar(&flags.keepResolution, "keep-resolution", false, "Never downscale, only re-encode")

	return cmd
}

func runCompress(flags compressFlags, paths []string) error {
	if _, err := preset.Get(flags.presetName); err != nil {
		return err
	}
	if flags.outDir != "" {
		if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	files := make([]*domain.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, &domain.File{
			Name:        filepath.Base(path),
			ContentType: contentTypeFor(path),
			Data:        data,
		})
	}

	zlog.Init()
	engine := client.NewEngine(client.Options{
		Preset: flags.presetName,
		Custom: &domain.ClientOptions{
			MaxSizeMB:            flags.maxSizeMB,
			MaxWidthOrHeight:     flags.maxEdge,
			InitialQuality:       flags.quality,
			AlwaysKeepResolution: flags.keepResolution,
		},
	}, &zlog.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		engine.Abort()
		cancel()
	}()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("compressing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "=", SaucerHead: ">", SaucerPadding: " ",
			BarStart: "[", BarEnd: "]",
		}),
	)

	start := time.Now()
	var done, failed int
	var savedBytes int64

	for i, file := range files {
		if ctx.Err() != nil {
			break
		}

		result, err := engine.Compress(ctx, file)
		_ = bar.Add(1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n%s: %v\n", paths[i], err)
			failed++
			continue
		}
		if result == nil {
			break
		}

		outPath := outputPath(paths[i], result.File.Name, flags.outDir)
		if err := os.WriteFile(outPath, result.File.Data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "\n%s: failed to write: %v\n", outPath, err)
			failed++
			continue
		}

		done++
		savedBytes += result.OriginalSize - result.CompressedSize
	}

	fmt.Printf("\nCompressed %d of %d files in %s, saved %s\n",
		done, len(files), time.Since(start).Round(time.Millisecond),
		preset.FormatFileSize(max64(savedBytes, 0)))

	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}

func outputPath(srcPath, resultName, outDir string) string {
	if outDir != "" {
		return filepath.Join(outDir, resultName)
	}
	return filepath.Join(filepath.Dir(srcPath), resultName)
}

func contentTypeFor(path string) string {
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
