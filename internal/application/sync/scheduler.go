package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// DefaultInterval periodo del planificador.
const DefaultInterval = 5 * time.Minute

// Scheduler dispara Engine.Sync por ticker y a demanda (Trigger). Ambos caminos pasan por el
// mismo Sync, así que nunca corren dos sincronizaciones a la vez.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	opts     Options
	log      zerolog.Logger
	trigger  chan struct{}

	mu     stdsync.RWMutex
	status entity.SyncStatus
}

// NewScheduler construye el planificador. interval <= 0 usa DefaultInterval.
func NewScheduler(engine *Engine, interval time.Duration, opts Options, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		opts:     opts,
		log:      log,
		trigger:  make(chan struct{}, 1),
	}
}

// Run bloquea hasta que ctx se cancela.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	s.log.Info().Dur("interval", s.interval).Msg("sync: planificador iniciado")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sync: planificador detenido")
			return nil
		case <-t.C:
			s.RunOnce(ctx, s.opts)
		case <-s.trigger:
			s.RunOnce(ctx, s.opts)
		}
	}
}

// Options devuelve las opciones configuradas de cada corrida.
func (s *Scheduler) Options() Options { return s.opts }

// Trigger pide una corrida inmediata; si ya hay una pedida, no encola otra.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// RunOnce ejecuta una corrida síncrona y registra su resultado en Status.
func (s *Scheduler) RunOnce(ctx context.Context, opts Options) (*entity.SyncResult, error) {
	res, err := s.engine.Sync(ctx, opts)
	if errors.Is(err, domain.ErrSyncInProgress) {
		s.log.Debug().Msg("sync: ya hay una corrida en curso")
		return nil, err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.status.LastRunAt = &now
	if res != nil {
		s.status.LastResult = res
	}
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("sync: corrida fallida")
	}
	return res, err
}

// Status devuelve una copia del estado del planificador.
func (s *Scheduler) Status() entity.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Running = s.engine.Running()
	if st.LastResult != nil {
		r := *st.LastResult
		st.LastResult = &r
	}
	return st
}
