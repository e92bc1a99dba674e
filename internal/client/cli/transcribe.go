package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/spf13/cobra"
)

type transcribeOptions struct {
	path     string
	fileID   int64
	duration string
}

func newTranscribeCommand(c *commandContext) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe [file-id]",
		Short: "Transcribe an uploaded file, or a local file with --path",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				opts.fileID = id
			}
			return app.Transcribe(cmd.Context(), opts)
		}),
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "local audio file to upload and transcribe")
	cmd.Flags().StringVar(&opts.duration, "duration", "", "mm:ss duration of the local file")
	return cmd
}

// Transcribe runs a stored file through the transcription service, or
// uploads opts.path first. With both set the transcript is attached to
// opts.fileID.
func (a *App) Transcribe(ctx context.Context, opts transcribeOptions) error {
	if opts.path == "" && opts.fileID == 0 {
		return errors.New("give a file id or --path")
	}

	var res *apiclient.TranscriptionResult
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		if opts.path == "" {
			res, err = a.api.Transcribe(ctx, opts.fileID)
			return err
		}

		f, err := os.Open(opts.path)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err = a.api.TranscribeFile(ctx, apiclient.UploadFile{
			Name:     filepath.Base(opts.path),
			Body:     f,
			Duration: opts.duration,
		}, opts.fileID)
		return err
	})
	if err != nil {
		return err
	}

	a.printf("Transcription %d saved for file %d.\n\n", res.TranscriptionID, res.FileID)
	if text := res.Text(); text != "" {
		a.printf("%s\n", text)
	} else {
		a.printf("%s\n", string(res.Data))
	}
	return nil
}

func newTranscriptsCommand(c *commandContext) *cobra.Command {
	var fileID int64
	var full bool

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List saved transcripts",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.ListTranscriptions(cmd.Context(), fileID, full)
		}),
	}
	cmd.Flags().Int64Var(&fileID, "file-id", 0, "only transcripts of this file")
	cmd.Flags().BoolVar(&full, "full", false, "print whole transcripts instead of a table")
	return cmd
}

func (a *App) ListTranscriptions(ctx context.Context, fileID int64, full bool) error {
	var list []apiclient.Transcription
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		list, err = a.api.ListTranscriptions(ctx, fileID)
		return err
	})
	if err != nil {
		return err
	}

	if full {
		if len(list) == 0 {
			a.printf("Nothing to show.\n")
		}
		for _, t := range list {
			a.printf("#%d  file %d %s  %s\n%s\n\n", t.ID, t.FileID, t.FileName, formatWhen(t.CreatedAt), t.Text)
		}
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			strconv.FormatInt(t.FileID, 10),
			t.FileName,
			formatWhen(t.CreatedAt),
			truncate(t.Text, 60),
		})
	}
	a.printTable([]string{"ID", "File ID", "File", "Created", "Transcript"}, rows, []columnAlignment{alignRight, alignRight})
	return nil
}
