package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/resgraph/internal/ingest"
)

// CLIProgressReporter implements ingest.ProgressReporter with progress bars.
type CLIProgressReporter struct {
	out          io.Writer
	quiet        bool
	mu           sync.Mutex // OnFileProcessed runs on several workers
	fileBar      *progressbar.ProgressBar
	embeddingBar *progressbar.ProgressBar
	embedded     int
}

// NewCLIProgressReporter creates a reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{out: out, quiet: quiet}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, "Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Analyzing %s Python files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.fileBar = c.newBar(totalFiles, "Analyzing files", "files/s")
}

func (c *CLIProgressReporter) OnFileProcessed(fileName string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnEmbeddingStart(totalChunks int) {
	if c.quiet {
		return
	}
	c.embedded = 0
	c.embeddingBar = c.newBar(totalChunks, "Embedding chunks", "chunks/s")
}

func (c *CLIProgressReporter) OnEmbeddingProgress(processedChunks int) {
	if c.quiet || c.embeddingBar == nil {
		return
	}
	if delta := processedChunks - c.embedded; delta > 0 {
		c.embeddingBar.Add(delta)
		c.embedded = processedChunks
	}
}

func (c *CLIProgressReporter) OnComplete(stats *ingest.Stats) {
	if c.quiet {
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Indexing complete: %s files in %.1fs\n",
		formatNumber(stats.Files), stats.Duration.Seconds())
	fmt.Fprintf(c.out, "  Unchanged:  %s\n", formatNumber(stats.Skipped))
	fmt.Fprintf(c.out, "  Failed:     %s\n", formatNumber(stats.Failed))
	fmt.Fprintf(c.out, "  Operations: %s\n", formatNumber(stats.Operations))
	fmt.Fprintf(c.out, "  Resources:  %s\n", formatNumber(stats.Resources))
	fmt.Fprintf(c.out, "  Chunks:     %s\n", formatNumber(stats.Chunks))
}

func (c *CLIProgressReporter) newBar(total int, description, its string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(its),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}

	var result string
	for i, ch := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(ch)
	}
	return result
}
