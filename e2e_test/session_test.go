//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jsphweid/scoretrack/cmd"
	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/db"
	"github.com/jsphweid/scoretrack/follow"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var server *httptest.Server

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "scoretrack-e2e")
	if err != nil {
		panic(err.Error())
	}
	os.Setenv("SCORETRACK_DATA_DIR", dir)
	os.Setenv("SCORETRACK_STORE", "sqlite")

	store, err := db.Open()
	if err != nil {
		panic(err.Error())
	}
	sessions := follow.NewRegistry(constants.SessionIdleTimeout, follow.Options{LookAhead: constants.LookAhead})
	server = httptest.NewServer(cmd.NewServer(nil, store, sessions).Router())

	exitVal := m.Run()

	server.Close()
	sessions.CloseAll()
	store.Close()
	os.RemoveAll(dir)
	os.Exit(exitVal)
}

func post(t *testing.T, path string, body any) *http.Response {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

// a two bar tune, one beat per note, at the fixed tempo
func tune(t *testing.T) ([]byte, model.Timeline) {
	var beats model.Timeline
	for i, p := range []uint8{67, 64, 64, 65, 62, 62, 60, 62, 64, 65, 67, 67, 67} {
		beats = append(beats, model.Note{Pitch: p, Start: float64(i), Duration: 1})
	}
	dat, err := midi.WriteTimeline(beats)
	require.NoError(t, err)
	reference, err := midi.ReadTimeline(dat)
	require.NoError(t, err)
	return dat, reference
}

func TestFollowPerformanceE2E(t *testing.T) {
	dat, reference := tune(t)
	assert := assert.New(t)

	resp := post(t, "/scores", model.PutScoreRequestBody{Sheet: "Hanschen klein", Page: 1, Midi: dat})
	assert.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/scores?q=hanschen")
	require.NoError(t, err)
	matches := decode[[]model.ScoreMatch](t, resp)
	require.NotEmpty(t, matches)
	assert.Equal("Hanschen klein", matches[0].Sheet)

	resp = post(t, "/sessions", model.CreateSessionRequestBody{Sheet: "Hanschen klein", Page: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := decode[model.CreateSessionResponse](t, resp)

	var last float64
	for _, round := range sample.Rounds(reference, 4) {
		resp = post(t, "/sessions/"+session.ID+"/align", model.AlignRequestBody{Notes: round})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		aligned := decode[model.AlignResponse](t, resp)
		assert.Equal(0.0, aligned.Distance)
		assert.GreaterOrEqual(aligned.PlayTime, last)
		last = aligned.PlayTime
	}
	assert.InDelta(reference[len(reference)-1].End(), last, 1e-9)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/sessions/"+session.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(http.StatusNoContent, resp.StatusCode)
}
