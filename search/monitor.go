package search

import (
	"iter"

	"github.com/sidekick-labs/sidekick/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterTemporalParse(parsed core.ParsedQuery)
	AfterExplicitResolution(ids []core.ID)
	AfterPageScan(offset, scanned, retained int)
	AfterRanking(ids iter.Seq[core.ID])
	DateMatchedHit(id core.ID)
	LinkedNoteAttached(id core.ID, path string)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterTemporalParse(_ core.ParsedQuery) {}
func (n *noopMonitor) AfterExplicitResolution(_ []core.ID) {}
func (n *noopMonitor) AfterPageScan(_, _, _ int)           {}
func (n *noopMonitor) AfterRanking(_ iter.Seq[core.ID])    {}
func (n *noopMonitor) DateMatchedHit(_ core.ID)            {}
func (n *noopMonitor) LinkedNoteAttached(_ core.ID, _ string) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}
