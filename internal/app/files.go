package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Files prints the recorded sessions matching opts.
func (a *App) Files(ctx context.Context, opts FilesOptions) error {
	source, release, err := a.openSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	entries, err := source.ListFiles(ctx, opts.Query)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "no files found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tDate\tLabel\tName")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			entry.ID,
			entry.Date,
			sanitizeInline(entry.Label()),
			sanitizeInline(entry.Name),
		)
	}
	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
