package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/config"
	"jordanella.com/pagecapture-go/internal/database"
	"jordanella.com/pagecapture-go/internal/events"
	"jordanella.com/pagecapture-go/internal/export"
	"jordanella.com/pagecapture-go/internal/logging"
	"jordanella.com/pagecapture-go/internal/pager"
	"jordanella.com/pagecapture-go/internal/pagestore"
)

type captureFlags struct {
	backend       string
	outputDir     string
	pdfPath       string
	noPDF         bool
	threshold     int
	maxDuplicates int
	maxPages      int
	probe         bool
	serial        string
}

func newCaptureCmd(c *cli) *cobra.Command {
	f := &captureFlags{}

	cmd := &cobra.Command{
		Use:   "capture [app]",
		Short: "Capture every page of the document shown in an app",
		Long: `capture focuses the app, then captures, compares and advances until the
same page has been seen maxDuplicates times in a row. The page directory
is cleared first. With the adb backend the argument is an Android package;
without one the current foreground app is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := layers{
				base:     c.settings,
				profiles: c.profiles,
				flags:    func(s *config.Settings) *config.Settings { return f.apply(cmd, s) },
			}

			var query string
			if len(args) > 0 {
				query = args[0]
			}
			return runCapture(cmd.Context(), cmd.OutOrStdout(), l, query)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.backend, "backend", "", "capture backend: desktop or adb")
	flags.StringVarP(&f.outputDir, "out", "o", "", "page image directory")
	flags.StringVar(&f.pdfPath, "pdf", "", "PDF output path")
	flags.BoolVar(&f.noPDF, "no-pdf", false, "skip building the PDF")
	flags.IntVar(&f.threshold, "threshold", 0, "maximum fingerprint distance that counts as the same page")
	flags.IntVar(&f.maxDuplicates, "max-duplicates", 0, "consecutive duplicates that end the document")
	flags.IntVar(&f.maxPages, "max-pages", 0, "stop after this many pages (0 = no limit)")
	flags.BoolVar(&f.probe, "probe", false, "log a probe-region check before each capture")
	flags.StringVar(&f.serial, "serial", "", "adb device serial or host:port")
	return cmd
}

// apply returns a copy of base with explicitly set flags applied
func (f *captureFlags) apply(cmd *cobra.Command, base *config.Settings) *config.Settings {
	s := *base
	flags := cmd.Flags()
	if flags.Changed("backend") {
		s.Backend = f.backend
	}
	if flags.Changed("out") {
		s.OutputDir = f.outputDir
	}
	if flags.Changed("pdf") {
		s.PDFPath = f.pdfPath
	}
	if f.noPDF {
		s.BuildPDF = false
	}
	if flags.Changed("threshold") {
		s.Threshold = f.threshold
	}
	if flags.Changed("max-duplicates") {
		s.MaxDuplicates = f.maxDuplicates
	}
	if flags.Changed("max-pages") {
		s.MaxPages = f.maxPages
	}
	if flags.Changed("probe") {
		s.ProbeBeforeCapture = f.probe
	}
	if flags.Changed("serial") {
		s.ADBSerial = f.serial
	}
	return &s
}

func runCapture(ctx context.Context, out io.Writer, l layers, query string) error {
	log := logging.NewLogger("cli")

	settings, err := l.initial()
	if err != nil {
		return err
	}

	bus := events.NewEventBus(100)
	var eventLog *logging.EventLogger
	if settings.LoggingEnabled {
		el, err := logging.NewEventLogger(bus, settings.LogDir)
		if err != nil {
			log.Warn("Event log disabled: " + err.Error())
		} else {
			eventLog = el
		}
	}
	defer func() {
		bus.Stop()
		if eventLog != nil {
			eventLog.Close()
		}
	}()

	db, err := database.OpenAndMigrate(settings.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := newSession(ctx, l, query)
	if err != nil {
		return err
	}
	defer sess.Close()
	settings = sess.settings
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("settings for %s: %w", sess.target.ID, err)
	}

	store, err := pagestore.Open(settings.OutputDir)
	if err != nil {
		return err
	}
	removed, err := store.Clear()
	if err != nil {
		return err
	}
	if removed > 0 {
		log.InfoWithContext("Cleared page directory", map[string]interface{}{
			"dir":     settings.OutputDir,
			"removed": removed,
		})
	}

	runID := uuid.NewString()
	if err := db.StartRun(&database.Run{
		ID:         runID,
		TargetID:   sess.target.ID,
		TargetName: sess.target.Name,
		Backend:    settings.Backend,
		OutputDir:  settings.OutputDir,
	}); err != nil {
		return err
	}
	store.SetRecorder(db.Recorder(runID))

	controller := pager.NewController(
		sess.source, sess.advancer, sess.focus, store, settings.PagerConfig(),
		pager.WithEventBus(bus),
		pager.WithRunIDs(func() string { return runID }),
	)

	cfg := controller.Config()
	fmt.Fprintf(out, "Capturing %s into %s (Ctrl+C to stop)\n", sess.target, settings.OutputDir)
	fmt.Fprintf(out, "Threshold %d, max duplicates %d\n", cfg.Threshold, cfg.MaxDuplicates)
	result := controller.Run(ctx, sess.target)

	status := database.RunStatusCompleted
	if result.Aborted() {
		status = database.RunStatusAborted
	}
	if err := db.FinishRun(runID, status, string(result.Reason), len(result.Pages), result.Err); err != nil {
		log.Error("Failed to record run result", err)
	}

	fmt.Fprintf(out, "Run %s %s (%s): %d pages\n", runID, result.Outcome, result.Reason, len(result.Pages))
	if last, ok := store.Last(); ok {
		fmt.Fprintf(out, "Last page: %s (%s)\n", last.Path, last.Fingerprint)
	}
	if result.FingerprintFailures > 0 {
		fmt.Fprintf(out, "%d frames could not be fingerprinted: %v\n", result.FingerprintFailures, result.Unreadable)
	}

	// Pages captured before an abort are still worth binding
	if settings.BuildPDF && len(result.Pages) > 0 {
		pdf, err := export.BuildPDF(store.Paths(), settings.PDFPath, export.Options{
			Overwrite: true,
			Progress:  os.Stderr,
		})
		if err != nil {
			log.Error("PDF export failed", err)
		} else {
			bus.Publish(events.NewPDFWrittenEvent(pdf.Path, pdf.Pages))
			fmt.Fprintf(out, "PDF written to %s (%d pages)\n", pdf.Path, pdf.Pages)
		}
	}

	if result.Aborted() {
		return result.Err
	}
	return nil
}
