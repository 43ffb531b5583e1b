package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/project"
)

var (
	dim    = color.New(color.Faint).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Fetch the pinned repositories of one profile and print them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		logger, err := newLogger(cmd.ErrOrStderr(), cfg)
		if err != nil {
			return err
		}
		pinnedResolver := newResolver(cfg, metadata.NewRecorder(logger), nil)
		defer func() {
			_ = pinnedResolver.Close(cmd.Context())
		}()

		result, resolveErr := pinnedResolver.Resolve(cmd.Context(), args[0], true)
		if resolveErr != nil {
			return resolveErr
		}

		if settings.GetBool("json") {
			return printJSON(cmd.OutOrStdout(), result.Records)
		}
		printTable(cmd.OutOrStdout(), args[0], result.Records)
		return nil
	},
}

func printJSON(w io.Writer, records []project.Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func printTable(w io.Writer, username string, records []project.Record) {
	if len(records) == 0 {
		fmt.Fprintf(w, "%s has no pinned repositories\n", username)
		return
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"Repo", "Language", "Stars", "Forks", "Description", "Link"})
	for _, record := range records {
		_ = table.Append([]string{
			green(record.Owner + "/" + record.Repo),
			valueOr(record.Language, "-"),
			yellow(strconv.Itoa(record.Stars)),
			strconv.Itoa(record.Forks),
			valueOr(record.Description, ""),
			dim(record.Link),
		})
	}
	_ = table.Render()
}

func valueOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
