package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/db"
	"github.com/jsphweid/scoretrack/follow"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/omr"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var port string

func init() {
	addOMRFlags(serveCmd)
	serveCmd.Flags().StringVar(&port, "port", "", "port to listen on (default $PORT or 8080)")
	serveCmd.Flags().Float64Var(&lookAhead, "lookahead", constants.LookAhead, "seconds past the cursor to search, 0 for all")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves conversion and score following over HTTP",
	Long:  `Serves conversion and score following over HTTP`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

// Server holds what the HTTP handlers share. A nil converter disables
// /convert.
type Server struct {
	converter *omr.Converter
	store     db.Store
	sessions  *follow.Registry
	limiter   *rate.Limiter
}

func NewServer(converter *omr.Converter, store db.Store, sessions *follow.Registry) *Server {
	return &Server{
		converter: converter,
		store:     store,
		sessions:  sessions,
		// charged per page: 2 pages a second, bursts of one full request
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), constants.MaxPagesPerRequest),
	}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(recoveryMiddleware)
	router.HandleFunc("/convert", s.handleConvert).Methods("POST")
	router.HandleFunc("/scores", s.handlePutScore).Methods("POST")
	router.HandleFunc("/scores", s.handleListScores).Methods("GET")
	router.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	router.HandleFunc("/sessions/{id}/align", s.handleAlign).Methods("POST")
	router.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	router.HandleFunc("/sessions/{id}", s.handleEndSession).Methods("DELETE")

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}).Handler(router)
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic in handler", "path", r.URL.Path, "err", err, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not write response", "err", err)
	}
}

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was ready.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, omr.ErrBadInput), errors.Is(err, follow.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound), errors.Is(err, follow.ErrUnknownSession), errors.Is(err, follow.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, follow.ErrInsufficientReference):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(omr.ErrBadInput, "could not decode request body: "+err.Error())
	}
	return nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var input model.ConvertRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}
	if len(input.Pages) == 0 {
		writeError(w, errors.Wrap(omr.ErrBadInput, "no pages"))
		return
	}
	if len(input.Pages) > constants.MaxPagesPerRequest {
		writeError(w, errors.Wrapf(omr.ErrBadInput, "at most %d pages per request", constants.MaxPagesPerRequest))
		return
	}
	if !s.limiter.AllowN(time.Now(), len(input.Pages)) {
		writeJSON(w, http.StatusTooManyRequests, model.ErrorResponse{Error: "too many pages, slow down"})
		return
	}
	if s.converter == nil {
		writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{Error: "recognition is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.ConvertTimeout)
	defer cancel()
	res, err := s.converter.Convert(ctx, input.Pages)
	if err != nil {
		writeError(w, err)
		return
	}

	out := model.ConvertResponse{Midi: res.Midi, Notes: res.Notes, Pages: make([]model.PageStatus, 0, len(res.Pages))}
	if out.Notes == nil {
		out.Notes = model.Timeline{}
	}
	for _, p := range res.Pages {
		status := model.PageStatus{Index: p.Index, Notes: p.NumNotes()}
		if p.Err != nil {
			status.Error = p.Err.Error()
		}
		out.Pages = append(out.Pages, status)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutScore(w http.ResponseWriter, r *http.Request) {
	var input model.PutScoreRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}
	if input.Sheet == "" || input.Page < 1 {
		writeError(w, errors.Wrap(omr.ErrBadInput, "sheet and page (from 1) are required"))
		return
	}
	if _, err := midi.ReadTimeline(input.Midi); err != nil {
		writeError(w, errors.Wrap(omr.ErrBadInput, "midi: "+err.Error()))
		return
	}

	score := model.Score{Sheet: input.Sheet, Page: input.Page, Midi: input.Midi}
	if err := s.store.PutScore(r.Context(), score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.ScoreMatch{Sheet: input.Sheet, Pages: []int{input.Page}, Similarity: 1})
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListScores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	res := db.MatchSheet(keys, r.URL.Query().Get("q"))
	if res == nil {
		res = []model.ScoreMatch{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var input model.CreateSessionRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}
	score, err := s.store.GetScore(r.Context(), model.ScoreKey{Sheet: input.Sheet, Page: input.Page})
	if err != nil {
		writeError(w, err)
		return
	}
	reference, err := midi.ReadTimeline(score.Midi)
	if err != nil {
		writeError(w, errors.Wrap(err, "stored midi is unreadable"))
		return
	}

	id, session := s.sessions.Start(reference)
	writeJSON(w, http.StatusCreated, model.CreateSessionResponse{ID: id.String(), NumEvents: session.Len()})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (uuid.UUID, *follow.Session, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, errors.Wrap(omr.ErrBadInput, "bad session id"))
		return id, nil, false
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return id, nil, false
	}
	return id, session, true
}

func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	_, session, ok := s.session(w, r)
	if !ok {
		return
	}
	var input model.AlignRequestBody
	if err := decodeBody(r, &input); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.AlignTimeout)
	defer cancel()
	query := follow.MergeOnsets(input.Notes, constants.OnsetMergeWindow)
	res, err := session.Align(ctx, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AlignResponse{
		BestStart: res.BestStart,
		BestEnd:   res.BestEnd,
		PlayTime:  res.PlayTime,
		Distance:  res.Distance,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, errors.Wrap(omr.ErrBadInput, "bad session id"))
		return
	}
	if err := s.sessions.End(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func serve() {
	converter, lib := loadConverterOrPanic()
	defer lib.Close()
	store := openStoreOrPanic()
	defer store.Close()
	sessions := follow.NewRegistry(constants.SessionIdleTimeout, follow.Options{LookAhead: lookAhead})
	defer sessions.CloseAll()

	if port == "" {
		port = constants.GetPort()
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewServer(converter, store, sessions).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving", "addr", srv.Addr, "store", constants.GetStoreBackend())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
