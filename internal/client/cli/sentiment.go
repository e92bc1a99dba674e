package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/spf13/cobra"
)

func newAnalyzeCommand(c *commandContext) *cobra.Command {
	var in apiclient.SentimentRequest

	cmd := &cobra.Command{
		Use:   "analyze <file-id>...",
		Short: "Categorize the sentiment of transcribed files",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			in.FileIDs = ids
			return app.Analyze(cmd.Context(), in)
		}),
	}
	cmd.Flags().StringVar(&in.StudentName, "student", "", "student name")
	cmd.Flags().StringVar(&in.ParentName, "parent", "", "parent name")
	cmd.Flags().StringVar(&in.GradeName, "grade", "", "grade")
	return cmd
}

// Analyze prints one row per file. It fails only when no file could be
// analyzed.
func (a *App) Analyze(ctx context.Context, in apiclient.SentimentRequest) error {
	if in.StudentName != "" && !common.IsPersonName(in.StudentName) {
		return errors.New("student name may contain letters and spaces only")
	}
	if in.ParentName != "" && !common.IsPersonName(in.ParentName) {
		return errors.New("parent name may contain letters and spaces only")
	}

	var results []apiclient.SentimentResult
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		results, err = a.api.StartSentiment(ctx, in)
		return err
	})

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		category, errText := "", r.Error
		if r.Analysis != nil {
			category = r.Analysis.CategoryName
		}
		rows = append(rows, []string{strconv.FormatInt(r.FileID, 10), category, errText})
	}
	if len(rows) > 0 {
		a.printTable([]string{"File ID", "Category", "Error"}, rows, []columnAlignment{alignRight})
	}
	return err
}

func newAnalysesCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyses",
		Short: "List sentiment analysis results",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.ListAnalyses(cmd.Context())
		}),
	}
}

func (a *App) ListAnalyses(ctx context.Context) error {
	var list []apiclient.SentimentAnalysis
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		list, err = a.api.ListSentiment(ctx)
		return err
	})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			strconv.FormatInt(s.FileID, 10),
			s.FileName,
			s.StudentName,
			s.ParentName,
			s.GradeName,
			s.CategoryName,
			formatWhen(s.CreatedAt),
		})
	}
	a.printTable(
		[]string{"ID", "File ID", "File", "Student", "Parent", "Grade", "Category", "Created"},
		rows,
		[]columnAlignment{alignRight, alignRight},
	)
	return nil
}
