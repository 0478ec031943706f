package ingest

import "time"

// Stats summarizes one ingestion run.
type Stats struct {
	Files      int
	Skipped    int
	Failed     int
	Operations int
	Resources  int
	Chunks     int
	Duration   time.Duration
}

// ProgressReporter provides callbacks for reporting ingestion progress.
// OnFileProcessed may be called from several workers at once.
type ProgressReporter interface {
	OnDiscoveryStart()
	OnDiscoveryComplete(files int)
	OnFileProcessingStart(totalFiles int)
	OnFileProcessed(fileName string)
	OnEmbeddingStart(totalChunks int)
	OnEmbeddingProgress(processedChunks int)
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                       {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)           {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)    {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)         {}
func (n *NoOpProgressReporter) OnEmbeddingStart(totalChunks int)        {}
func (n *NoOpProgressReporter) OnEmbeddingProgress(processedChunks int) {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                 {}
