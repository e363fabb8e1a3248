package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipset/internal/catalog"
	"clipset/internal/remotezip"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var urlFlag string
	var showEntries bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "List the classes in the remote archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if v := strings.TrimSpace(urlFlag); v != "" {
				cfg.Archive.URL = v
			}
			if err := cfg.ValidateArchiveURL(); err != nil {
				return err
			}

			archive, err := remotezip.Open(cmd.Context(), cfg.Archive.URL,
				remotezip.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
				remotezip.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			names := remotezip.FilterMedia(archive.Names(), cfg.Archive.Extension, cfg.Archive.MinPathSegments)

			out := cmd.OutOrStdout()
			if showEntries {
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			labeler, err := catalog.NewLabeler(cfg.Archive.LabelSource, cfg.Archive.LabelSeparator, cfg.Archive.LabelTokenFromEnd)
			if err != nil {
				return err
			}
			index, err := catalog.GroupByClass(names, labeler)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, index.Len())
			var totalBytes uint64
			for _, class := range index.Classes() {
				var size uint64
				for _, name := range index.Files(class) {
					if entry, ok := archive.Lookup(name); ok {
						size += entry.UncompressedSize
					}
				}
				totalBytes += size
				rows = append(rows, []string{class, strconv.Itoa(len(index.Files(class))), humanize.Bytes(size)})
			}
			footer := []string{"Total", strconv.Itoa(index.Total()), humanize.Bytes(totalBytes)}
			fmt.Fprintln(out, renderTable([]string{"Class", "Files", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}, footer))
			fmt.Fprintf(out, "%d classes, %d unlabeled entries, archive %s read with %d range requests\n",
				index.Len(), index.Skipped(), humanize.Bytes(uint64(archive.Size())), archive.Requests())
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Archive URL (overrides archive.url)")
	cmd.Flags().BoolVar(&showEntries, "entries", false, "Print matching entry names instead of the class table")
	return cmd
}
