package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	journaldomain "github.com/smallbiznis/catalogadmin/internal/journal/domain"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	"github.com/smallbiznis/catalogadmin/internal/product/form"
	"go.uber.org/zap"
)

const MsgJournalUnavailable = "Recent submissions are unavailable."

type outcomeCount struct {
	Outcome string
	Count   int64
}

type dashboardPage struct {
	Summary  journaldomain.Summary
	Outcomes []outcomeCount
	Views    int
}

var dashboardOutcomes = []form.Outcome{
	form.OutcomeSucceeded,
	form.OutcomeRejectedLocally,
	form.OutcomeRejectedByServer,
	form.OutcomeFailed,
}

// GetDashboard shows the submission journal. A journal failure degrades to
// an empty summary with a notice.
func (s *Server) GetDashboard(c *gin.Context) {
	view := currentView(c)

	summary, err := s.journalSvc.Summary(c.Request.Context())
	if err != nil {
		s.log.Warn("journal summary failed", zap.Error(err))
		view.Notices.Notify(notify.Warning(MsgJournalUnavailable))
		summary = journaldomain.Summary{Counts: map[string]int64{}}
	}

	data := dashboardPage{
		Summary: summary,
		Views:   s.views.Len(),
	}
	for _, outcome := range dashboardOutcomes {
		data.Outcomes = append(data.Outcomes, outcomeCount{
			Outcome: string(outcome),
			Count:   summary.Counts[string(outcome)],
		})
	}

	s.render(c, http.StatusOK, "dashboard", page{
		Title:       "Dashboard",
		Breadcrumbs: []crumb{{Label: "Home"}},
		Data:        data,
	})
}
