// Package aoefimport provides the import command for AOEF documents
package aoefimport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/app"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/importer"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// importFunc is ImportAnnotationProject or ImportDataset.
type importFunc func(ctx context.Context, src io.Reader, opts importer.Options) (*importer.Result, error)

type flags struct {
	audioDir               string
	user                   string
	existingRecordingsOnly bool
	showDropped            bool
	output                 string
}

// Command creates and returns the import command
func Command(appCtx *app.Context) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import AOEF documents into the annotation store",
		Long: `Import reconciles AOEF annotation projects and datasets with the store.
Entities already present are reused, so importing a file twice is a no-op.`,
	}

	cmd.PersistentFlags().StringVar(&f.audioDir, "audio-dir", "", "Directory the document's recording paths are relative to (default: base directory)")
	cmd.PersistentFlags().StringVarP(&f.user, "user", "u", "", "Username of the importing user")
	cmd.PersistentFlags().BoolVar(&f.existingRecordingsOnly, "existing-recordings-only", false, "Skip recordings that are not already stored")
	cmd.PersistentFlags().BoolVar(&f.showDropped, "show-dropped", false, "List every dropped entity")
	cmd.PersistentFlags().StringVarP(&f.output, "output", "o", OutputText, "Summary format: text, json or yaml")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "project <file>...",
			Short: "Import annotation project files",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(cmd, appCtx, f, args, appCtx.Importer().ImportAnnotationProject)
			},
		},
		&cobra.Command{
			Use:   "dataset <file>...",
			Short: "Import dataset files",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(cmd, appCtx, f, args, appCtx.Importer().ImportDataset)
			},
		},
	)

	return cmd
}

type fileResult struct {
	path   string
	result *importer.Result
	err    error
}

// runImport imports every file in its own transaction, at most
// Import.Concurrency at a time.
func runImport(cmd *cobra.Command, appCtx *app.Context, f *flags, files []string, run importFunc) error {
	switch f.output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unsupported output format %q", f.output)
	}
	opts, err := f.options(appCtx)
	if err != nil {
		return err
	}
	log := appCtx.Logger.Module("cli")

	results := make([]fileResult, len(files))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(appCtx.Settings.Import.Concurrency)
	for i, path := range files {
		g.Go(func() error {
			res, err := importFile(cmd.Context(), path, opts, run, log)
			mu.Lock()
			results[i] = fileResult{path: path, result: res, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}

	out := cmd.OutOrStdout()
	if f.output != OutputText {
		summaries := make([]fileSummary, 0, len(results))
		for _, r := range results {
			summaries = append(summaries, summarize(r.path, r.result, r.err))
		}
		if err := writeStructured(out, f.output, summaries); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.err != nil {
				printError(cmd.ErrOrStderr(), r.path, r.err)
				continue
			}
			printSummary(out, r.path, r.result, f.showDropped)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(files))
	}
	return nil
}

// importFile imports path, retrying once when a concurrent import inserted
// one of the same natural keys first.
func importFile(ctx context.Context, path string, opts importer.Options, run importFunc, log logger.Logger) (*importer.Result, error) {
	attempt := func() (*importer.Result, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.New(err).
				Component("cli").
				Category(errors.CategoryFileIO).
				Context("path", path).
				FileContext(path, 0).
				Build()
		}
		defer func() { _ = file.Close() }()
		return run(ctx, file, opts)
	}

	res, err := attempt()
	if errors.Is(err, repository.ErrDuplicateKey) {
		log.Info("retrying import after concurrent insert", logger.String("path", path))
		res, err = attempt()
	}
	return res, err
}

func (f *flags) options(appCtx *app.Context) (importer.Options, error) {
	base, err := filepath.Abs(appCtx.Settings.Audio.BaseDir)
	if err != nil {
		return importer.Options{}, err
	}
	opts := importer.Options{
		BaseAudioDir:           base,
		ImportedBy:             f.user,
		ExistingRecordingsOnly: f.existingRecordingsOnly,
	}
	// Paths on the command line are relative to the working directory.
	if f.audioDir != "" {
		if opts.AudioDir, err = filepath.Abs(f.audioDir); err != nil {
			return importer.Options{}, err
		}
	}
	return opts, nil
}

func printError(w io.Writer, path string, err error) {
	var fe *aoef.FormatError
	if errors.As(err, &fe) {
		body, _ := json.MarshalIndent(fe, "", "  ")
		_, _ = fmt.Fprintf(w, "%s: %s\n", path, body)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %v\n", path, err)
}
