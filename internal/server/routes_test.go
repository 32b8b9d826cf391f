package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/util"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/pkg/arduino_serial"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHTTP(t *testing.T) (*httptest.Server, *testStack) {
	stack := newTestStack(t, arduino_serial.TestDeviceOptions{})
	srv := newServer(util.LoadTestConfig(), stack.dispatcher, stack.eventStream, stack.logger)
	ts := httptest.NewServer(srv.RegisterRoutes())
	t.Cleanup(ts.Close)
	return ts, stack
}

func post(t *testing.T, url, body string) (int, []byte) {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealthCheckHandler(t *testing.T) {

	ts, _ := startHTTP(t)

	resp, err := http.Get(ts.URL + "/healthcheck")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "health_check: OK", string(body))
}

func TestVersionHandler(t *testing.T) {

	ts, _ := startHTTP(t)

	resp, err := http.Get(ts.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()

	var version VersionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, version.Version)
}

func TestActionHandler(t *testing.T) {

	ts, stack := startHTTP(t)

	status, body := post(t, ts.URL+"/actions", `{"intent":"GARAGE","value":"CLOSE"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"accepted":true,"device_line_echo":"[arduino] GARAGE -> CLOSE"}`, string(body))
	assert.Equal(t, []string{"GARAGE:global:CLOSE"}, stack.device.Received())

	status, body = post(t, ts.URL+"/actions", `{"intent":"GARAGE","value":"ON"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	var result domain.BridgeResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, strings.HasPrefix(result.Error, "malformed request"), result.Error)
}

func TestCommandHandler(t *testing.T) {

	ts, stack := startHTTP(t)

	status, body := post(t, ts.URL+"/commands", `{"text":"set the thermostat to 68"}`)
	assert.Equal(t, http.StatusOK, status)

	var resp CommandResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, domain.IntentThermostat, resp.Action.Intent)
	assert.Equal(t, domain.TemperatureValue(68), resp.Action.Value)
	assert.True(t, resp.Result.Accepted)

	status, body = post(t, ts.URL+"/commands", `{"text":"what's the weather"}`)
	assert.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Action.IsUnknown())
	assert.Equal(t, "unrecognized command", resp.Result.Error)

	status, _ = post(t, ts.URL+"/commands", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, []string{"THERMOSTAT:global:68"}, stack.device.Received())
}

func TestEventsHandler(t *testing.T) {

	ts, _ := startHTTP(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	// the subscription is registered once the upgrade completes on the server side
	time.Sleep(100 * time.Millisecond)

	status, _ := post(t, ts.URL+"/commands", `{"text":"turn off the bedroom fan"}`)
	require.Equal(t, http.StatusOK, status)

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var evt domain.ActionAppliedEvent
	require.NoError(t, ws.ReadJSON(&evt))

	assert.Equal(t, domain.IntentFan, evt.Action.Intent)
	assert.Equal(t, "bedroom", evt.Action.Location)
	assert.Equal(t, domain.SOURCE_HTTP, evt.Source)
	assert.True(t, evt.Result.Accepted)
}
