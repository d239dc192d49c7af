package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"page-stealth/config"
	"page-stealth/fetch"
	"page-stealth/logger"
	"page-stealth/storage"
)

type fetchOptions struct {
	save     bool
	withHTML bool
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a page with masking applied and print a JSON summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runFetch(cmd.Context(), root, opts, args[0])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, opts.withHTML)
		},
	}
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the snapshot under fetch.data_dir")
	cmd.Flags().BoolVar(&opts.withHTML, "html", false, "include page HTML in the output")
	return cmd
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Fetch a page and fail unless every masked property reads as expected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runFetch(cmd.Context(), root, &fetchOptions{}, args[0])
			if err != nil {
				return err
			}
			if err := writeResult(cmd.OutOrStdout(), res, false); err != nil {
				return err
			}
			if len(res.Issues) > 0 {
				return errMaskingIncomplete
			}
			return nil
		},
	}
	return cmd
}

func runFetch(ctx context.Context, root *rootOptions, opts *fetchOptions, target string) (*fetch.Result, error) {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, root.logFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	defer zapLogger.Sync()
	logr := zapLogger.Sugar()

	var store storage.StateStore = storage.NoopStore{}
	if opts.save {
		store = &storage.FileStore{BaseDir: cfg.Fetch.DataDir}
	}

	f, err := fetch.New(cfg, logr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logr.Warnw("close browser", "error", err)
		}
	}()

	res, err := f.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := saveResult(ctx, store, res, logr); err != nil {
		return nil, err
	}
	return res, nil
}

func saveResult(ctx context.Context, store storage.StateStore, res *fetch.Result, log *zap.SugaredLogger) error {
	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	key := res.Key()
	if err := store.Save(ctx, key, payload); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if fs, ok := store.(*storage.FileStore); ok {
		log.Infow("snapshot saved", "path", fs.Path(key))
	}
	return nil
}

func writeResult(w io.Writer, res *fetch.Result, withHTML bool) error {
	out := *res
	if !withHTML {
		out.HTML = ""
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
