package vectorstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/resgraph/internal/extraction"
)

// DefaultChunkLines is the number of lines captured from each symbol.
const DefaultChunkLines = 30

// FileSymbol is the symbol name given to whole-file chunks.
const FileSymbol = "file"

// Chunk is a slice of source text anchored at a symbol.
type Chunk struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Symbol   string `json:"symbol"`
	Kind     string `json:"kind"`
	Line     int    `json:"line"`
	Text     string `json:"text"`
}

// Chunker slices files into per-symbol chunks.
type Chunker struct {
	lines int
}

// NewChunker creates a chunker capturing lines lines per symbol.
// Non-positive values fall back to DefaultChunkLines.
func NewChunker(lines int) *Chunker {
	if lines <= 0 {
		lines = DefaultChunkLines
	}
	return &Chunker{lines: lines}
}

// Chunk returns one chunk per symbol, each holding up to c.lines lines
// starting at the symbol's line. A file without symbols becomes a single
// chunk with symbol "file". Blank files produce no chunks.
func (c *Chunker) Chunk(path, source string, symbols []extraction.Symbol) []Chunk {
	if strings.TrimSpace(source) == "" {
		return nil
	}

	filename := filepath.Base(path)
	if len(symbols) == 0 {
		return []Chunk{{
			ID:       chunkID(path, 0, FileSymbol),
			Filename: filename,
			Path:     path,
			Symbol:   FileSymbol,
			Kind:     FileSymbol,
			Line:     1,
			Text:     source,
		}}
	}

	lines := strings.Split(source, "\n")
	chunks := make([]Chunk, 0, len(symbols))
	for _, sym := range symbols {
		start := sym.Line - 1
		if start < 0 || start >= len(lines) {
			continue
		}
		end := min(start+c.lines, len(lines))
		chunks = append(chunks, Chunk{
			ID:       chunkID(path, sym.Line, sym.Name),
			Filename: filename,
			Path:     path,
			Symbol:   sym.Name,
			Kind:     string(sym.Kind),
			Line:     sym.Line,
			Text:     strings.Join(lines[start:end], "\n"),
		})
	}
	return chunks
}

func chunkID(path string, line int, symbol string) string {
	return fmt.Sprintf("%s:%d:%s", filepath.ToSlash(path), line, symbol)
}
