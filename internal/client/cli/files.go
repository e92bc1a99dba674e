package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/dmitrijs2005/audioscribe/internal/filex"
	"github.com/dmitrijs2005/audioscribe/internal/netx"
	"github.com/spf13/cobra"
)

func newFilesCommand(c *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded audio files",
	}
	cmd.AddCommand(
		newFilesListCommand(c),
		newFilesUploadCommand(c),
		newFilesDeleteCommand(c),
		newFilesDownloadCommand(c),
		newFilesStatusesCommand(c),
	)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newFilesListCommand(c *commandContext) *cobra.Command {
	var opts apiclient.ListFilesOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your uploaded files, newest first",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.ListFiles(cmd.Context(), opts)
		}),
	}
	cmd.Flags().IntVar(&opts.StatusID, "status", 0, "only files with this status id")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of files")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of files to skip")
	return cmd
}

func (a *App) ListFiles(ctx context.Context, opts apiclient.ListFilesOptions) error {
	var files []apiclient.AudioFile
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		files, err = a.api.ListFiles(ctx, opts)
		return err
	})
	if err != nil {
		return err
	}
	a.printFiles(files)
	return nil
}

func (a *App) printFiles(files []apiclient.AudioFile) {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.FileName,
			f.FileType,
			formatSize(f.SizeBytes, f.FileSize),
			f.Duration,
			f.StatusName,
			formatWhen(f.CreatedAt),
		})
	}
	a.printTable(
		[]string{"ID", "Name", "Type", "Size", "Duration", "Status", "Uploaded"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func newFilesUploadCommand(c *commandContext) *cobra.Command {
	var durations []string

	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.Upload(cmd.Context(), args, durations)
		}),
	}
	cmd.Flags().StringSliceVar(&durations, "duration", nil, "mm:ss duration per file, in argument order")
	return cmd
}

// Upload sends the files at paths in one request. durations are matched by
// position.
func (a *App) Upload(ctx context.Context, paths, durations []string) error {
	if len(durations) > len(paths) {
		return errors.New("more durations than files")
	}

	var uploaded []apiclient.AudioFile
	err := a.authed(ctx, func(ctx context.Context) error {
		files := make([]apiclient.UploadFile, 0, len(paths))
		for i, p := range paths {
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()

			uf := apiclient.UploadFile{Name: filepath.Base(p), Body: f}
			if i < len(durations) {
				uf.Duration = durations[i]
			}
			files = append(files, uf)
		}

		var err error
		uploaded, err = a.api.Upload(ctx, files)
		return err
	})
	if err != nil {
		return err
	}

	a.printf("Uploaded %d file(s).\n", len(uploaded))
	a.printFiles(uploaded)
	return nil
}

func newFilesDeleteCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a file with its transcripts and analyses",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.DeleteFile(cmd.Context(), id)
		}),
	}
}

func (a *App) DeleteFile(ctx context.Context, id int64) error {
	err := a.authed(ctx, func(ctx context.Context) error {
		return a.api.DeleteFile(ctx, id)
	})
	if err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("file %d not found", id)
		}
		return err
	}
	a.printf("File %d deleted.\n", id)
	return nil
}

func newFilesDownloadCommand(c *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Download the stored audio of a file",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.Download(cmd.Context(), id, output)
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "target path, derived from the file name when empty")
	return cmd
}

// Download saves the audio of file id through a presigned storage URL.
func (a *App) Download(ctx context.Context, id int64, output string) error {
	var url string
	err := a.authed(ctx, func(ctx context.Context) error {
		if output == "" {
			f, err := a.api.GetFile(ctx, id)
			if err != nil {
				return err
			}
			output = filex.UniquePath(downloadName(f))
		}

		var err error
		url, err = a.api.DownloadURL(ctx, id)
		return err
	})
	if err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("file %d not found", id)
		}
		return err
	}

	n, err := netx.DownloadPresignedURL(ctx, nil, url, output)
	if err != nil {
		return err
	}
	a.printf("Saved %s to %s\n", formatSize(n, "0 B"), output)
	return nil
}

func downloadName(f *apiclient.AudioFile) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, f.FileName)
	if name == "" {
		name = "audio-" + strconv.FormatInt(f.ID, 10)
	}
	if f.FileType != "" {
		name += "." + strings.ToLower(f.FileType)
	}
	return name
}

func newFilesStatusesCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List the file status values",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.ListStatuses(cmd.Context())
		}),
	}
}

func (a *App) ListStatuses(ctx context.Context) error {
	var statuses []apiclient.Status
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		statuses, err = a.api.ListStatuses(ctx)
		return err
	})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{strconv.Itoa(s.ID), s.Name})
	}
	a.printTable([]string{"ID", "Status"}, rows, []columnAlignment{alignRight})
	return nil
}
