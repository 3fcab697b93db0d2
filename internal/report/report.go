// Package report summarizes segmentation results for the terminal.
package report

import (
	"context"

	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/store"
)

// Report contains precomputed data for rendering.
type Report struct {
	Sessions []model.SessionMetadata
	Runs     []model.RunSummary
	Summary  Summary
}

// BuildReport loads sessions matching filter and the latest runs.
func BuildReport(ctx context.Context, st *store.Store, filter model.SessionFilter, runs int) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	var runList []model.RunSummary
	if runs > 0 {
		runList, err = st.ListRuns(ctx, runs)
		if err != nil {
			return Report{}, err
		}
	}
	return Report{
		Sessions: sessions,
		Runs:     runList,
		Summary:  Summarize(sessions),
	}, nil
}
