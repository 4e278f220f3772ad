package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/napolitain/warren/internal/config"
	"github.com/napolitain/warren/internal/converter"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/solver"
	"github.com/napolitain/warren/internal/storage"
)

// server drives one engine over HTTP. Every engine call holds mu.
type server struct {
	mu     sync.Mutex
	engine *sim.Engine

	store  storage.Store
	cfg    config.Config
	logger *zap.Logger

	autosave rate.Sometimes

	limMu     sync.Mutex
	limiters  map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

// limiterIdle is how long a host's limiter survives without requests
const limiterIdle = 10 * time.Minute

// client is the rate limit state of one remote host
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newServer(engine *sim.Engine, store storage.Store, cfg config.Config, logger *zap.Logger) *server {
	return &server{
		engine:   engine,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		autosave: rate.Sometimes{Interval: cfg.Storage.AutosaveInterval()},
		limiters: make(map[string]*client),
		now:      time.Now,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/state", s.handleState)
		r.Get("/buildings", s.handleBuildings)
		r.Post("/buildings/{id}/upgrade", s.handleUpgrade)
		r.Post("/buildings/{id}/click", s.handleClick)
		r.Post("/training", s.handleTrain)
		r.Post("/research/{id}", s.handleResearch)
		r.Post("/heroes/{id}/recruit", s.handleRecruit)
		r.Post("/heroes/{id}/equip", s.handleEquip)
		r.Post("/heroes/{id}/unequip/{slot}", s.handleUnequip)
		r.Post("/quests/{id}/claim", s.handleClaim)
		r.Post("/campaign/{id}/battle", s.handleBattle)
		r.Post("/time/advance", s.handleAdvance)
		r.Post("/plan", s.handlePlan)

		r.Get("/saves", s.handleListSaves)
		r.Post("/saves/{slot}", s.handleSave)
		r.Post("/saves/{slot}/load", s.handleLoad)
		r.Delete("/saves/{slot}", s.handleDeleteSave)
	})
	return r
}

// run advances the clock at the configured tick rate until ctx is done
func (s *server) run(ctx context.Context) {
	interval := s.cfg.Game.TickInterval()
	dt := interval.Seconds() * s.cfg.Game.TimeScale
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, dt)
		}
	}
}

func (s *server) tick(ctx context.Context, dt float64) {
	s.mu.Lock()
	err := s.engine.AdvanceTime(dt)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Tick failed", zap.Error(err))
		return
	}
	if s.cfg.Storage.AutosaveSeconds > 0 {
		s.autosave.Do(func() {
			if err := s.save(ctx, s.cfg.Storage.Slot); err != nil {
				s.logger.Warn("Autosave failed", zap.Error(err))
			}
		})
	}
}

func (s *server) save(ctx context.Context, slot string) error {
	s.mu.Lock()
	snap := s.engine.Snapshot()
	s.mu.Unlock()
	return s.store.Save(ctx, slot, snap)
}

func (s *server) limiter(key string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterIdle {
		for host, c := range s.limiters {
			if now.Sub(c.lastSeen) >= limiterIdle {
				delete(s.limiters, host)
			}
		}
		s.lastSweep = now
	}

	c, ok := s.limiters[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(s.cfg.Server.RateLimit), s.cfg.Server.RateBurst)}
		s.limiters[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiter(host).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := converter.ErrorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, converter.NewErrorResponse(err))
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(converter.ErrBadRequest, err)
	}
	return nil
}

// command runs fn under the engine lock and answers with the new state
func (s *server) command(w http.ResponseWriter, fn func(e *sim.Engine) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.engine); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, converter.State(s.engine))
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, converter.State(s.engine))
}

func (s *server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, converter.Buildings(s.engine))
}

func (s *server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	id := models.BuildingID(chi.URLParam(r, "id"))
	s.command(w, func(e *sim.Engine) error { return e.StartUpgrade(id) })
}

func (s *server) handleClick(w http.ResponseWriter, r *http.Request) {
	id := models.BuildingID(chi.URLParam(r, "id"))
	s.command(w, func(e *sim.Engine) error { return e.ClickBuilding(id) })
}

func (s *server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req converter.TrainRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	troop, n, err := converter.ToTraining(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.command(w, func(e *sim.Engine) error { return e.EnqueueTraining(troop, n) })
}

func (s *server) handleResearch(w http.ResponseWriter, r *http.Request) {
	id := models.NodeID(chi.URLParam(r, "id"))
	s.command(w, func(e *sim.Engine) error { return e.StartResearch(id) })
}

func (s *server) handleRecruit(w http.ResponseWriter, r *http.Request) {
	id := models.HeroID(chi.URLParam(r, "id"))
	s.command(w, func(e *sim.Engine) error { return e.RecruitHero(id) })
}

func (s *server) handleEquip(w http.ResponseWriter, r *http.Request) {
	id := models.HeroID(chi.URLParam(r, "id"))
	var req converter.EquipRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	item, err := converter.ToEquipment(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.command(w, func(e *sim.Engine) error { return e.EquipHero(id, item) })
}

func (s *server) handleUnequip(w http.ResponseWriter, r *http.Request) {
	id := models.HeroID(chi.URLParam(r, "id"))
	slot := models.EquipSlot(chi.URLParam(r, "slot"))
	s.command(w, func(e *sim.Engine) error { return e.UnequipHero(id, slot) })
}

func (s *server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id := models.QuestID(chi.URLParam(r, "id"))
	s.command(w, func(e *sim.Engine) error { return e.ClaimQuest(id) })
}

func (s *server) handleBattle(w http.ResponseWriter, r *http.Request) {
	stage := models.StageID(chi.URLParam(r, "id"))
	var req converter.BattleRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	army, heroIDs, err := converter.ToArmy(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.engine.ResolveCampaignStage(stage, army, heroIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, converter.BattleReport{Outcome: out, Resources: s.engine.Balance()})
}

func (s *server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req converter.AdvanceRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	dt, err := converter.ToAdvance(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.command(w, func(e *sim.Engine) error { return e.AdvanceTime(dt) })
}

func (s *server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req converter.PlanRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	targets, err := converter.ToTargets(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	start := s.engine.Snapshot()
	s.mu.Unlock()

	best, _, err := solver.SolveAllStrategies(s.engine.Catalog(), start, targets)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

func (s *server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	slots, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if err := s.save(r.Context(), slot); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Saved", zap.String("slot", slot))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	snap, err := s.store.Load(r.Context(), slot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.command(w, func(e *sim.Engine) error {
		e.Restore(snap)
		return nil
	})
	s.logger.Info("Loaded", zap.String("slot", slot))
}

func (s *server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "slot")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
