package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/ledger"
	"time-release-helper/internal/logger"
	"time-release-helper/internal/submission"
)

type ChainStatus struct {
	Name      string    `json:"name"`
	LastBlock uint64    `json:"last_block"`
	CheckedAt time.Time `json:"checked_at"`
}

var (
	isReady       int32
	chainStatuses = make(map[string]*ChainStatus)
	statusMutex   sync.RWMutex
)

func SetReady(ready bool) {
	if ready {
		atomic.StoreInt32(&isReady, 1)
	} else {
		atomic.StoreInt32(&isReady, 0)
	}
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	statusMutex.RLock()
	defer statusMutex.RUnlock()

	if len(chainStatuses) == 0 || atomic.LoadInt32(&isReady) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))

		return
	}

	response := make(map[string]interface{})
	response["status"] = "Ready"
	response["chains"] = chainStatuses
	response["submission_in_progress"] = submission.InProgress()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// LedgerHandler exports the session ledger as TSV. ?scope=last limits it to the last touched record.
func LedgerHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := ledger.ParseScope(r.URL.Query().Get("scope"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/tab-separated-values")
		w.Header().Set("X-Session-Id", l.SessionID())
		if err := l.WriteTSV(w, scope); err != nil {
			logger.GetLogger().Error().Err(err).Msg("Failed to write ledger export")
		}
	}
}

// SessionLogHandler serves the human-readable session log as plain text
func SessionLogHandler(sessionLog func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, entry := range sessionLog() {
			_, _ = w.Write([]byte(entry))
		}
	}
}

// NewRouter builds the ops HTTP surface. A nil ledger or session log leaves its route out.
func NewRouter(l *ledger.Ledger, sessionLog func() []string) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", LivenessHandler).Methods(http.MethodGet)
	router.HandleFunc("/readyz", ReadinessHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if l != nil {
		router.HandleFunc("/ledger", LedgerHandler(l)).Methods(http.MethodGet)
	}
	if sessionLog != nil {
		router.HandleFunc("/log", SessionLogHandler(sessionLog)).Methods(http.MethodGet)
	}
	return router
}

// Serve runs handler on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.GetLogger().Info().Str("addr", addr).Msg("Starting ops server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RegisterChain polls the chain head every interval and reports it on /readyz
func RegisterChain(ctx context.Context, name string, chain interfaces.ChainClient, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			head, err := chain.Head(ctx)
			if err != nil {
				logger.GetLogger().Error().
					Err(err).
					Str("chain", name).
					Msg("Error getting latest block")
			} else {
				updateChainStatus(name, head)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func updateChainStatus(name string, lastBlock uint64) {
	statusMutex.Lock()
	defer statusMutex.Unlock()
	chainStatuses[name] = &ChainStatus{
		Name:      name,
		LastBlock: lastBlock,
		CheckedAt: time.Now().UTC(),
	}
}
