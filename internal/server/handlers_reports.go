package server

import (
	"net/http"
	"time"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/narrative"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/store"
)

type journalResponse struct {
	Entries       []ledger.JournalEntry  `json:"entries"`
	Gaps          []ledger.DerivationGap `json:"gaps"`
	SkippedEvents int                    `json:"skipped_events"`
}

func (s *Server) journal(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	j := rep.Journal()
	entries := j.Entries
	if id := r.URL.Query().Get("event_id"); id != "" {
		entries = j.EntriesFor(id)
	}
	writeJSON(w, http.StatusOK, journalResponse{
		Entries:       emptyIfNil(entries),
		Gaps:          emptyIfNil(j.Gaps),
		SkippedEvents: j.SkippedEvents(),
	})
}

func (s *Server) generalLedger(w http.ResponseWriter, r *http.Request) {
	q := reports.LedgerQuery{AccountID: r.URL.Query().Get("account_id")}
	for key, dst := range map[string]**time.Time{"start": &q.Start, "end": &q.End} {
		if !r.URL.Query().Has(key) {
			continue
		}
		t, err := queryDate(r, key, time.Time{})
		if err != nil {
			fail(w, r, err)
			return
		}
		*dst = &t
	}

	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	gl, err := rep.GeneralLedger(q)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gl)
}

// pointInTime serves a report computed as of a single date.
func (s *Server) pointInTime(w http.ResponseWriter, r *http.Request, build func(*reports.Reporter, time.Time) any) {
	asOf, err := s.asOf(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, build(rep, asOf))
}

// overPeriod serves a report computed over start..end.
func (s *Server) overPeriod(w http.ResponseWriter, r *http.Request, build func(*reports.Reporter, time.Time, time.Time) any) {
	start, end, err := s.period(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, build(rep, start, end))
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	s.pointInTime(w, r, func(rep *reports.Reporter, asOf time.Time) any { return rep.TrialBalance(asOf) })
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	s.pointInTime(w, r, func(rep *reports.Reporter, asOf time.Time) any { return rep.BalanceSheet(asOf) })
}

func (s *Server) reconciliation(w http.ResponseWriter, r *http.Request) {
	s.pointInTime(w, r, func(rep *reports.Reporter, asOf time.Time) any { return rep.Reconcile(asOf) })
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	s.overPeriod(w, r, func(rep *reports.Reporter, start, end time.Time) any { return rep.IncomeStatement(start, end) })
}

func (s *Server) cashFlow(w http.ResponseWriter, r *http.Request) {
	s.overPeriod(w, r, func(rep *reports.Reporter, start, end time.Time) any { return rep.CashFlowStatement(start, end) })
}

func (s *Server) taxReport(w http.ResponseWriter, r *http.Request) {
	s.overPeriod(w, r, func(rep *reports.Reporter, start, end time.Time) any { return rep.TaxReport(start, end) })
}

func (s *Server) aging(w http.ResponseWriter, r *http.Request) {
	typ := reports.AgingType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = reports.AgingReceivable
	}
	asOf, err := s.asOf(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ar, err := rep.AgingReport(typ, asOf)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ar)
}

type commentaryResponse struct {
	Summary string                `json:"summary"`
	Figures narrative.SummaryTask `json:"figures"`
}

// commentary asks the AI service to describe figures computed here.
func (s *Server) commentary(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "ai service is not configured")
		return
	}
	start, end, err := s.period(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	figures := narrative.SummaryFor(rep, start, end)
	figures.Language = r.URL.Query().Get("lang")
	text, err := s.ai.Summarize(r.Context(), figures)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commentaryResponse{Summary: text, Figures: figures})
}

type archiveResponse struct {
	Added   int `json:"added"`
	Entries int `json:"entries"`
}

// archive appends the current journal to the posting archive.
func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Reporter(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	entries := rep.Journal().Entries
	added, err := s.store.Archive(r.Context(), entries)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, archiveResponse{Added: added, Entries: len(entries)})
}

func (s *Server) listArchive(w http.ResponseWriter, r *http.Request) {
	f := store.ArchiveFilter{
		AccountID: r.URL.Query().Get("account_id"),
		EventID:   r.URL.Query().Get("event_id"),
	}
	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		fail(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		fail(w, r, err)
		return
	}
	rows, err := s.store.ArchivedPostings(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(rows))
}
