package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/db"
	"github.com/jsphweid/scoretrack/follow"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/omr"
	"github.com/jsphweid/scoretrack/sample"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) http.Handler {
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	sessions := follow.NewRegistry(time.Hour, follow.Options{})
	t.Cleanup(sessions.CloseAll)
	return NewServer(nil, store, sessions).Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func scaleMidi(t *testing.T) ([]byte, model.Timeline) {
	var beats model.Timeline
	for i, p := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
		beats = append(beats, model.Note{Pitch: p, Start: float64(i), Duration: 1})
	}
	dat, err := midi.WriteTimeline(beats)
	require.NoError(t, err)
	reference, err := midi.ReadTimeline(dat)
	require.NoError(t, err)
	return dat, reference
}

func TestSessionRoundTrip(t *testing.T) {
	h := testServer(t)
	dat, reference := scaleMidi(t)
	assert := assert.New(t)

	w := do(t, h, http.MethodPost, "/scores", model.PutScoreRequestBody{Sheet: "C Major Scale", Page: 1, Midi: dat})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/scores?q=c+major+scale", nil)
	require.Equal(t, http.StatusOK, w.Code)
	matches := decode[[]model.ScoreMatch](t, w)
	require.Len(t, matches, 1)
	assert.Equal([]int{1}, matches[0].Pages)

	w = do(t, h, http.MethodPost, "/sessions", model.CreateSessionRequestBody{Sheet: "C Major Scale", Page: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.CreateSessionResponse](t, w)
	assert.Equal(len(reference), created.NumEvents)

	query := sample.Create(reference, reference[2].Start, 2)
	w = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/align", model.AlignRequestBody{Notes: query})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	aligned := decode[model.AlignResponse](t, w)
	assert.Equal(2, aligned.BestStart)
	assert.Equal(4, aligned.BestEnd)
	assert.InDelta(reference[4].Start, aligned.PlayTime, 1e-9)

	// the matched notes are now behind the cursor
	w = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/align", model.AlignRequestBody{Notes: query})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(decode[model.AlignResponse](t, w).PlayTime, aligned.PlayTime)

	w = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/reset", nil)
	assert.Equal(http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/sessions/"+created.ID, nil)
	assert.Equal(http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/align", model.AlignRequestBody{Notes: query})
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestAlignErrors(t *testing.T) {
	h := testServer(t)
	dat, reference := scaleMidi(t)
	do(t, h, http.MethodPost, "/scores", model.PutScoreRequestBody{Sheet: "scale", Page: 1, Midi: dat})
	id := decode[model.CreateSessionResponse](t, do(t, h, http.MethodPost, "/sessions", model.CreateSessionRequestBody{Sheet: "scale", Page: 1})).ID

	assert := assert.New(t)

	w := do(t, h, http.MethodPost, "/sessions/"+id+"/align", model.AlignRequestBody{})
	assert.Equal(http.StatusBadRequest, w.Code)
	assert.NotEmpty(decode[model.ErrorResponse](t, w).Error)

	var long model.Timeline
	for i := 0; i <= len(reference); i++ {
		long = append(long, model.Note{Pitch: 60, Start: float64(i), Duration: 0.5})
	}
	w = do(t, h, http.MethodPost, "/sessions/"+id+"/align", model.AlignRequestBody{Notes: long})
	assert.Equal(http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/not-a-uuid/align", model.AlignRequestBody{Notes: reference})
	assert.Equal(http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/00000000-0000-0000-0000-000000000000/align", model.AlignRequestBody{Notes: reference})
	assert.Equal(http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/sessions", model.CreateSessionRequestBody{Sheet: "missing", Page: 1})
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestPutScoreValidates(t *testing.T) {
	h := testServer(t)

	w := do(t, h, http.MethodPost, "/scores", model.PutScoreRequestBody{Sheet: "x", Page: 1, Midi: []byte("garbage")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/scores", model.PutScoreRequestBody{Sheet: "", Page: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvertWithoutRecognizer(t *testing.T) {
	h := testServer(t)
	w := do(t, h, http.MethodPost, "/convert", model.ConvertRequestBody{Pages: [][]byte{{1}}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware)
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConvertIsRateLimitedPerPage(t *testing.T) {
	h := testServer(t)
	pages := func(n int) model.ConvertRequestBody {
		return model.ConvertRequestBody{Pages: make([][]byte, n)}
	}

	w := do(t, h, http.MethodPost, "/convert", pages(constants.MaxPagesPerRequest+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// a full request spends the whole burst
	w = do(t, h, http.MethodPost, "/convert", pages(constants.MaxPagesPerRequest))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, h, http.MethodPost, "/convert", pages(2))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.Wrap(omr.ErrBadInput, "x"), http.StatusBadRequest},
		{errors.Wrap(follow.ErrEmptyQuery, "x"), http.StatusBadRequest},
		{errors.Wrap(db.ErrNotFound, "x"), http.StatusNotFound},
		{follow.ErrSessionClosed, http.StatusNotFound},
		{errors.Wrap(follow.ErrInsufficientReference, "x"), http.StatusConflict},
		{errors.Wrap(context.DeadlineExceeded, "x"), http.StatusGatewayTimeout},
		{errors.Wrap(context.Canceled, "align at 1.000s"), statusClientClosedRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusFor(c.err), c.err.Error())
	}
}
