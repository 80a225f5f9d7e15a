package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the report footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Copy Summary"))
	if s.RunID != "" {
		fmt.Fprintf(&b, "- %s: `%s`\n", t("Run"), s.RunID)
	}
	fmt.Fprintf(&b, "- %s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	f.section(&b, t("Source"), [][2]string{
		{t("Name"), s.Source.Name},
		{t("Backend"), s.Source.Backend},
		{t("Frame Size"), size(s.Source.Width, s.Source.Height)},
		{t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Source.FPS)},
		{t("Frames"), f.count(s.Source.Frames)},
		{t("Codec"), orDash(s.Source.Codec)},
	})

	f.section(&b, t("Destination"), [][2]string{
		{t("Name"), s.Target.Name},
		{t("Backend"), s.Target.Backend},
		{t("Frame Size"), size(s.Target.Width, s.Target.Height)},
		{t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Target.FPS)},
		{t("Container"), orDash(s.Target.Ext)},
		{t("Codec"), orDash(s.Target.Codec)},
	})

	f.section(&b, t("Settings"), [][2]string{
		{t("Batch Size"), fmt.Sprintf("%d", s.Settings.BatchSize)},
		{t("Dynamic Batch"), f.yesNo(s.Settings.DynamicBatch)},
		{t("Max Frames"), f.limit(s.Settings.MaxFrames)},
		{t("Quality"), f.orDefault(s.Settings.Quality, "%d")},
		{t("Bitrate"), f.orDefault(s.Settings.Bitrate, "%d kbps")},
	})

	r := s.Result
	rows := [][2]string{
		{t("Frames Read"), fmt.Sprintf("%d", r.FramesRead)},
		{t("Frames Written"), fmt.Sprintf("%d", r.FramesWritten)},
		{t("Batches"), fmt.Sprintf("%d", r.Batches)},
		{t("Discarded"), fmt.Sprintf("%d", r.Discarded())},
	}
	if s.Target.FPS > 0 {
		rows = append(rows, [2]string{t("Duration"), fmt.Sprintf("%.2f s", float64(r.FramesWritten)/s.Target.FPS)})
	}
	if r.Elapsed > 0 {
		rows = append(rows,
			[2]string{t("Elapsed"), fmt.Sprintf("%.2f s", r.Elapsed.Seconds())},
			[2]string{t("Throughput"), fmt.Sprintf("%.1f fps", float64(r.FramesWritten)/r.Elapsed.Seconds())},
		)
	}
	if r.FileSize > 0 {
		rows = append(rows, [2]string{t("File Size"), formatBytes(r.FileSize)})
	}
	f.section(&b, t("Result"), rows)

	if f.version != "" {
		fmt.Fprintf(&b, "---\n\n%s vidsz %s\n", t("Generated by"), f.version)
	}
	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func (f *MarkdownFormatter) count(n int) string {
	if n <= 0 {
		return f.translate("unknown")
	}
	return fmt.Sprintf("%d", n)
}

func (f *MarkdownFormatter) limit(n int) string {
	if n <= 0 {
		return f.translate("unlimited")
	}
	return fmt.Sprintf("%d", n)
}

func (f *MarkdownFormatter) orDefault(n int, format string) string {
	if n <= 0 {
		return f.translate("default")
	}
	return fmt.Sprintf(format, n)
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.translate("yes")
	}
	return f.translate("no")
}

func size(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatBytes formats a byte count using binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}
