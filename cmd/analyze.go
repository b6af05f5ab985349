package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/PabloViniegra/how-are-u/internal/analysis"
	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
	"github.com/PabloViniegra/how-are-u/internal/render"
	"github.com/PabloViniegra/how-are-u/internal/store"
	"github.com/PabloViniegra/how-are-u/internal/upload"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Upload a face photo and show its beauty analysis",
	Long: `Upload a JPG, PNG or WebP image (10MB max) to the analysis API and print
the result. A progress bar follows the upload and the analysis phase.
Press Ctrl+C to cancel the upload.

A downscaled preview of the image is written to PREVIEW_DIR (a temporary
directory by default) while the analysis runs. Use --keep-preview to keep it.

Example:
  how-are-u analyze selfie.jpg
  how-are-u analyze --json selfie.png > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print the raw analysis as JSON")
	analyzeCmd.Flags().Bool("no-share", false, "Hide the share section")
	analyzeCmd.Flags().Bool("keep-preview", false, "Keep the preview thumbnail after the analysis")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asJSON := mustGetBool(cmd, "json")
	noShare := mustGetBool(cmd, "no-share")
	keepPreview := mustGetBool(cmd, "keep-preview")

	cfg, client, err := loadClient()
	if err != nil {
		return err
	}

	previews, err := upload.NewThumbnailStore(cfg.Preview.Dir, cfg.Preview.Size)
	if err != nil {
		return err
	}

	file, err := upload.FromPath(args[0])
	if err != nil {
		return err
	}

	session := upload.NewSession(previews)
	if !session.SelectFile(file) {
		return errors.New(session.UploadError())
	}
	if !keepPreview {
		defer session.ClearFile()
	}
	if preview := session.PreviewURL(); preview != "" {
		fmt.Fprintf(os.Stderr, "Vista previa: %s\n", preview)
	}

	analyzer := analysis.New(client, nil, nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			analyzer.CancelUpload()
		}
	}()

	result, err := uploadWithProgress(cmd.Context(), analyzer, session.SelectedFile(), os.Stderr)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if message := analyzer.Global().Error(); message != "" {
			return errors.New(message)
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return render.Analysis(os.Stdout, result, render.Options{
		ShowShare: !noShare,
		ShareURL:  cfg.Web.ShareURL(result.ID),
	})
}

// uploadWithProgress runs the upload while drawing the store's progress
// and notifications on out.
func uploadWithProgress(ctx context.Context, analyzer *analysis.Analyzer, file *upload.File, out io.Writer) (*beautyapi.Analysis, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	bar := progressbar.NewOptions(constants.ProgressComplete,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Analizando "+file.Name),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	analyses := analyzer.Analyses().AddListener()
	global := analyzer.Global().AddListener()
	done := make(chan struct{})
	go func() {
		defer close(done)
		drawEvents(bar, out, analyses, global)
	}()

	result, err := analyzer.UploadImage(ctx, file)

	analyzer.Analyses().RemoveListener(analyses)
	analyzer.Global().RemoveListener(global)
	<-done

	if err == nil {
		_ = bar.Finish()
	}
	fmt.Fprintln(out)
	return result, err
}

// drawEvents updates the bar and prints notifications until both channels close.
func drawEvents(bar *progressbar.ProgressBar, out io.Writer, analyses, global <-chan store.Event) {
	for analyses != nil || global != nil {
		var (
			event store.Event
			ok    bool
		)
		select {
		case event, ok = <-analyses:
			if !ok {
				analyses = nil
				continue
			}
		case event, ok = <-global:
			if !ok {
				global = nil
				continue
			}
		}

		switch event.Type {
		case store.EventProgress:
			if p, ok := event.Data.(progress.UploadProgress); ok {
				_ = bar.Set(p.Percentage)
			}
		case store.EventNotification:
			if n, ok := event.Data.(store.Notification); ok {
				_ = bar.Clear()
				_ = render.Notification(out, n)
			}
		}
	}
}
