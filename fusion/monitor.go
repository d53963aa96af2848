package fusion

import (
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
)

// SearchMonitor provides hooks to observe the fusion process.
// Implement this interface to track intermediate steps during search.
type SearchMonitor interface {
	Start(query string, profile string)
	AfterLexicalSearch(candidates []index.Candidate, err error)
	AfterVectorSearch(candidates []index.Candidate, err error)
	EmbeddingFailed(err error)
	AfterRecordRetrieval(records []*core.Record)
	Finish(results []*Result, degraded bool)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ string)                       {}
func (n *noopMonitor) AfterLexicalSearch(_ []index.Candidate, _ error) {}
func (n *noopMonitor) AfterVectorSearch(_ []index.Candidate, _ error)  {}
func (n *noopMonitor) EmbeddingFailed(_ error)                        {}
func (n *noopMonitor) AfterRecordRetrieval(_ []*core.Record)          {}
func (n *noopMonitor) Finish(_ []*Result, _ bool)                     {}
