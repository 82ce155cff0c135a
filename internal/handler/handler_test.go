package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"motiontracker/internal/dto"
	"motiontracker/internal/logger"
	"motiontracker/internal/model"
	"motiontracker/internal/repository/jsonfile"
	"motiontracker/internal/service"
	"motiontracker/internal/service/render"
	"motiontracker/internal/service/trajectory"
	"motiontracker/internal/service/websocket"

	"github.com/gorilla/mux"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	manager    *service.Manager
	trajectory *trajectory.Accumulator
	hub        *websocket.HubService
	logger     *logger.Logger
	router     *mux.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	l, err := logger.New(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	store, err := jsonfile.New(filepath.Join(dir, "coordinates.json"))
	require.NoError(t, err)

	hub := websocket.NewHubService(l)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	acc := trajectory.NewAccumulator()
	manager := service.NewManager(acc, store, hub, l)

	router := mux.NewRouter()
	router.HandleFunc("/coordinates", GetCoordinatesHandler(manager, l))
	router.HandleFunc("/coordinates/latest", GetLatestCoordinatesHandler(manager))
	router.HandleFunc("/trajectory.png", TrajectoryPlotHandler(manager, render.New(640, 480), l))
	router.HandleFunc("/stats", StatsHandler(manager))
	router.HandleFunc("/ws", ViewWebsocketHandler(manager, l))
	router.HandleFunc("/logs/{level}", ShowLogsHandler(l))
	router.HandleFunc("/logs/{level}/clear", ClearLogsHandler(l))

	return &fixture{manager: manager, trajectory: acc, hub: hub, logger: l, router: router}
}

func (f *fixture) track(t *testing.T, points ...model.Point) {
	t.Helper()
	for _, p := range points {
		f.trajectory.Record(p)
		require.NoError(t, f.manager.Publish(context.Background(), p, f.trajectory.Snapshot()))
	}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetCoordinates_NotFoundBeforeTracking(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/coordinates")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"No coordinates found"}`, rec.Body.String())
}

func TestGetCoordinates_ReturnsPersistedTrajectory(t *testing.T) {
	f := newFixture(t)
	f.track(t, model.Point{X: 100, Y: 140}, model.Point{X: 110, Y: 140})

	rec := f.get("/coordinates")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"x":[100,110],"y":[140,140]}`, rec.Body.String())
}

func TestGetLatestCoordinates(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.get("/coordinates/latest").Code)

	f.track(t, model.Point{X: 100, Y: 140}, model.Point{X: 120, Y: 150})
	rec := f.get("/coordinates/latest")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"x":120,"y":150}`, rec.Body.String())
}

func TestTrajectoryPlot(t *testing.T) {
	f := newFixture(t)
	f.track(t, model.Point{X: 100, Y: 140})

	rec := f.get("/trajectory.png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.track(t, model.Point{X: 1, Y: 2})

	rec := f.get("/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body["points"])
	assert.Equal(t, 0, body["cycles"])
}

func TestLogs(t *testing.T) {
	f := newFixture(t)
	f.logger.Warning("camera %s stalled", "front")

	rec := f.get("/logs/warning")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "camera front stalled")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, f.get("/logs/debug").Code)

	cleared := httptest.NewRecorder()
	f.router.ServeHTTP(cleared, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	assert.Equal(t, http.StatusNoContent, cleared.Code)

	data, err := os.ReadFile(f.logger.Path(logger.LevelWarning))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestViewWebsocket_ReceivesNewCoordinates(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.track(t, model.Point{X: 100, Y: 140}, model.Point{X: 110, Y: 141})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg dto.CoordinatesMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, dto.CoordinatesMessage{Event: "new_coordinates", X: 100, Y: 140}, msg)

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"new_coordinates","x":110,"y":141}`, string(data))
}
