package ingest

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/resgraph/internal/config"
	"github.com/mvp-joe/resgraph/internal/extraction"
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/parsers"
	"github.com/mvp-joe/resgraph/internal/resources"
)

// Analysis is the core's output for one file.
type Analysis struct {
	Symbols  []extraction.Symbol
	Index    *graph.Index
	Findings graph.OperationFindings
	Insights *graph.Insights
}

// Pipeline runs symbols → index → insights over one file's text. It keeps
// no per-call state, so one Pipeline may serve many workers.
type Pipeline struct {
	symbols        parsers.SymbolExtractor
	extractor      *resources.Extractor
	criticalFactor float64
	fingerprint    string
}

// NewPipeline builds a pipeline from the analysis configuration.
func NewPipeline(cfg config.AnalysisConfig) (*Pipeline, error) {
	symbols, err := parsers.NewSymbolExtractor(cfg.Symbols)
	if err != nil {
		return nil, err
	}
	boundary, err := parsers.NewBoundaryDetector(cfg.Boundary)
	if err != nil {
		return nil, err
	}
	scheme, err := resources.NewIDScheme(cfg.IDScheme)
	if err != nil {
		return nil, err
	}

	settings := fmt.Sprintf("symbols=%s;boundary=%s;id_scheme=%s",
		strategyName(cfg.Symbols), strategyName(cfg.Boundary), scheme.Name())

	return &Pipeline{
		symbols:        symbols,
		extractor:      resources.NewExtractor(resources.WithBoundary(boundary), resources.WithIDScheme(scheme)),
		criticalFactor: cfg.CriticalFactor,
		fingerprint:    ContentHash([]byte(settings)),
	}, nil
}

func strategyName(s string) string {
	if s == "" {
		return parsers.StrategyText
	}
	return strings.ToLower(s)
}

// Analyze runs the full pipeline over source. An invariant violation in the
// resulting index is returned as an error wrapping graph.ErrInvariantViolation.
func (p *Pipeline) Analyze(source string) (*Analysis, error) {
	symbols := p.symbols.Extract(source)
	idx, findings := graph.ExtractWithFindings(symbols, source, p.extractor)
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("dependency index: %w", err)
	}

	return &Analysis{
		Symbols:  symbols,
		Index:    idx,
		Findings: findings,
		Insights: graph.Analyze(idx, graph.WithCriticalFactor(p.criticalFactor)),
	}, nil
}

// Fingerprint identifies the settings that shape per-file results: symbol
// strategy, boundary strategy and id scheme. The critical factor is not part
// of it because insights are recomputed from stored findings.
func (p *Pipeline) Fingerprint() string {
	return p.fingerprint
}

// CriticalFactor returns the configured critical-resource factor.
func (p *Pipeline) CriticalFactor() float64 {
	return p.criticalFactor
}
