package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/zfogg/brandcast/internal/cli/config"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

// Writer is where command output goes
var Writer io.Writer = color.Output

// GetOutputFormat returns the configured output format
func GetOutputFormat() OutputFormat {
	switch config.GetString("output.format") {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// ValidateOutputFormat checks if format is valid
func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Print writes data as indented JSON in json mode and as a Field/Value
// listing of record otherwise.
func Print(data interface{}, record [][2]string) error {
	if GetOutputFormat() == FormatJSON {
		return PrintJSON(data)
	}
	if GetOutputFormat() == FormatTable {
		rows := make([][]string, 0, len(record))
		for _, kv := range record {
			rows = append(rows, []string{kv[0], kv[1]})
		}
		PrintTable([]string{"FIELD", "VALUE"}, rows)
		return nil
	}

	bold := color.New(color.Bold)
	for _, kv := range record {
		if kv[1] == "" {
			continue
		}
		bold.Fprint(Writer, kv[0]+": ")
		fmt.Fprintln(Writer, kv[1])
	}
	return nil
}

// PrintList writes items as JSON in json mode and as a table otherwise
func PrintList(items interface{}, headers []string, rows [][]string) error {
	if GetOutputFormat() == FormatJSON {
		return PrintJSON(items)
	}
	if len(rows) == 0 {
		PrintInfo("Nothing to show")
		return nil
	}
	PrintTable(headers, rows)
	return nil
}

// PrintJSON writes data as indented JSON
func PrintJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(Writer, string(out))
	return err
}

// PrintTable writes aligned columns with a bold header row
func PrintTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(Writer, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	bold.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(Writer, msg+"\n", args...)
}

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(Writer, "Error: "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(Writer, msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(Writer, "Warning: "+msg+"\n", args...)
}

// StatusColor renders an entry or job status in a color matching its outcome
func StatusColor(status string) string {
	switch status {
	case "published":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	case "publishing", "scheduled", "pending", "running", "retrying":
		return color.CyanString(status)
	case "canceled", "partially_published":
		return color.YellowString(status)
	default:
		return status
	}
}

// FormatTime renders t in local time, or "-" when unset
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Truncate shortens s to n runes with an ellipsis
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
