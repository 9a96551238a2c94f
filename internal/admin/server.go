// Package admin exposes a running campaign over HTTP.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"heist-engine/internal/campaign"
	"heist-engine/internal/crew"
	"heist-engine/internal/logging"
)

type Server struct {
	Campaign *campaign.Campaign
	tpl      *template.Template
	log      *slog.Logger
	mux      *http.ServeMux
}

//go:embed templates/index.html
var content embed.FS

func NewServer(c *campaign.Campaign, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{Campaign: c, tpl: tpl, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /deck", s.handleDeck)
	s.mux.HandleFunc("POST /deck", s.handleDraw)
	s.mux.HandleFunc("POST /incursions", s.handleIncursions)
	s.mux.HandleFunc("GET /alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /scenarios/{alertID}", s.handleScenario)
	s.mux.HandleFunc("POST /scenarios/{alertID}/resolve", s.handleResolveIncursion)
	s.mux.HandleFunc("POST /chemistry/{missionID}", s.handleBeats)
	s.mux.HandleFunc("GET /relationship/pending", s.handlePending)
	s.mux.HandleFunc("POST /relationship/{eventID}/resolve", s.handleResolveRelationship)
	s.mux.HandleFunc("GET /storylines", s.handleStorylines)
	s.mux.HandleFunc("POST /storylines/{crewID}/{stepID}", s.handleResolveStoryline)
	s.mux.HandleFunc("GET /state", s.handleState)
}

func (s *Server) Handler() http.Handler { return s.mux }

// Start serves until ctx is cancelled, then shuts down gracefully. Shutdown
// is logged to the context's logger when one is attached.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("admin listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.FromContext(ctx).Info("admin stopped", "addr", addr)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	seed := s.Campaign.Scenario()
	data := struct {
		ID       string
		Name     string
		Funds    float64
		HeatTier string
		Missions any
		Alerts   any
		Pending  []crew.EventView
	}{
		ID:       s.Campaign.ID(),
		Name:     seed.Name,
		Funds:    s.Campaign.Funds(),
		HeatTier: s.Campaign.HeatTier(),
		Missions: seed.Missions,
		Alerts:   s.Campaign.Alerts(),
		Pending:  s.Campaign.PendingRelationshipEvents(),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

// handleDeck returns the last drawn deck, drawing one on first request.
func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("mission")
	if deck, ok := s.Campaign.Deck(id); ok {
		s.writeJSON(w, http.StatusOK, deck)
		return
	}
	s.handleDraw(w, r)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	deck, err := s.Campaign.DrawDeck(r.URL.Query().Get("mission"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deck)
}

func (s *Server) handleIncursions(w http.ResponseWriter, r *http.Request) {
	res, err := s.Campaign.TriggerIncursions(r.URL.Query().Get("mission"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Campaign.Alerts())
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("alertID")
	sc, lines, ok := s.Campaign.DefenseScenario(id)
	if !ok {
		s.writeError(w, campaign.ErrUnknownAlert)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"scenario": sc, "summary": lines})
}

func (s *Server) handleResolveIncursion(w http.ResponseWriter, r *http.Request) {
	sc, err := s.Campaign.ResolveIncursion(r.PathValue("alertID"), r.URL.Query().Get("choice"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleBeats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Campaign.PlayBeats(r.PathValue("missionID")))
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Campaign.PendingRelationshipEvents())
}

func (s *Server) handleResolveRelationship(w http.ResponseWriter, r *http.Request) {
	res, err := s.Campaign.ResolveRelationshipEvent(r.PathValue("eventID"), r.URL.Query().Get("choice"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStorylines(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Campaign.Storylines())
}

func (s *Server) handleResolveStoryline(w http.ResponseWriter, r *http.Request) {
	outcome := r.URL.Query().Get("outcome")
	if outcome == "" {
		outcome = crew.OutcomeSuccess
	}
	res, err := s.Campaign.ResolveStoryline(r.PathValue("crewID"), r.PathValue("stepID"), outcome)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	b, err := s.Campaign.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, campaign.ErrUnknownMission),
		errors.Is(err, campaign.ErrUnknownAlert),
		errors.Is(err, campaign.ErrUnknownEvent),
		errors.Is(err, campaign.ErrUnknownCrew),
		errors.Is(err, campaign.ErrUnknownStep):
		status = http.StatusNotFound
	case errors.Is(err, campaign.ErrUnknownChoice):
		status = http.StatusBadRequest
	case errors.Is(err, campaign.ErrAlertCooling):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
