package search

import (
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/vector"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(hits []vector.Hit)
	AfterRecordRetrieval(records []*core.ContentRecord)
	MissingPage(record *core.ContentRecord)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterVectorSearch(_ []vector.Hit)           {}
func (n *noopMonitor) AfterRecordRetrieval(_ []*core.ContentRecord) {}
func (n *noopMonitor) MissingPage(_ *core.ContentRecord)          {}
func (n *noopMonitor) Finish(_ []*Result)                         {}
