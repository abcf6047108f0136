package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nijaru/webm-fix/config"
	"github.com/nijaru/webm-fix/controller"
	"github.com/nijaru/webm-fix/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type processOptions struct {
	duration string
	compress bool
	crf      string
	bitrate  string
	server   string
	out      string
	bucket   string
}

func processCmd(verbose *bool) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process FILE",
		Short: "Fix or compress a .webm file",
		Long: `Upload a .webm file (at most 10MB) to the processing server and save
the result as <name>_fixed.webm, or <name>_compressed.webm with --compress.

Examples:
  webmfix process clip.webm --duration 12.5
  webmfix process clip.webm --duration 12.5 --compress --crf 35 --bitrate 800k
  webmfix process clip.webm --duration 3 --out ~/Downloads`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			opts.apply(cfg)
			return runProcess(cmd.Context(), cfg, args[0], opts, *verbose, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.duration, "duration", "d", "", "Recording duration in seconds (required)")
	cmd.Flags().BoolVarP(&opts.compress, "compress", "c", false, "Compress the video")
	cmd.Flags().StringVar(&opts.crf, "crf", "", "Compression quality, lower is better (default from DEFAULT_CRF)")
	cmd.Flags().StringVar(&opts.bitrate, "bitrate", "", "Target bitrate, e.g. 1M or 800k (default from DEFAULT_BITRATE)")
	cmd.Flags().StringVar(&opts.server, "server", "", "Processing server URL (default from SERVER_URL)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Download directory (default from DOWNLOAD_DIR)")
	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "Save to this S3 bucket instead of a directory")
	cmd.MarkFlagRequired("duration")

	return cmd
}

// apply overrides cfg with the flags that were set.
func (o processOptions) apply(cfg *config.Config) {
	if o.server != "" {
		cfg.ServerURL = o.server
	}
	if o.out != "" {
		cfg.DownloadDir = o.out
		cfg.DownloadBucket = ""
	}
	if o.bucket != "" {
		cfg.DownloadBucket = o.bucket
	}
	if o.crf != "" {
		cfg.DefaultCRF = o.crf
	}
	if o.bitrate != "" {
		cfg.DefaultBitrate = o.bitrate
	}
}

func runProcess(ctx context.Context, cfg *config.Config, path string, opts processOptions, verbose bool, out io.Writer) error {
	a, err := newApp(ctx, cfg, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := models.NewSelectedFile(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open %s", path)
	}

	a.ctrl.Subscribe(func(v controller.View) {
		if v.InFlight && v.ProgressVisible() {
			fmt.Fprintf(out, "  %s\n", v.Progress)
		}
	})

	events := []controller.Event{
		controller.FileSelected{File: *file},
		controller.CompressionToggled{Enabled: opts.compress},
		controller.DurationChanged{Value: opts.duration},
		controller.SubmitRequested{},
	}
	for _, ev := range events {
		if err := a.ctrl.Update(ctx, ev); err != nil {
			break
		}
	}

	view := a.ctrl.View()
	if view.Status.IsError() {
		errorMsg("%s", view.Status.Text)
		return errReported
	}
	if !view.Status.IsSuccess() {
		return errors.New("processing did not complete")
	}

	success("%s", view.Status.Text)
	info("Saved to %s", view.Location)
	return nil
}
