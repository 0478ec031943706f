package ingest

import (
	"github.com/mvp-joe/resgraph/internal/graph"
	"github.com/mvp-joe/resgraph/internal/resources"
)

// QualifiedName joins a file's relative path and a name defined in it.
func QualifiedName(relPath, name string) string {
	return relPath + "::" + name
}

// Aggregate combines per-file indexes into one project-wide index.
// Operations are qualified by file (there is no cross-file symbol
// resolution). Database and http ids name a call site, so they are
// qualified too; file paths, config names and parameters keep their text
// and are shared across files that mention them. Results without an
// analysis contribute nothing.
func Aggregate(results []FileResult) *graph.Index {
	idx := graph.NewIndex()
	for _, r := range results {
		if r.Analysis == nil {
			continue
		}
		kinds := r.Analysis.Findings.Kinds()
		for op, res := range r.Analysis.Index.OperationToResources {
			qualified := resources.Set{}
			for id := range res {
				switch kinds[id] {
				case resources.KindDatabase, resources.KindHTTP:
					qualified.Add(QualifiedName(r.RelPath, id))
				default:
					qualified.Add(id)
				}
			}
			idx.Add(QualifiedName(r.RelPath, op), qualified)
		}
	}
	return idx
}
