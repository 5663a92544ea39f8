// pkg/web/handlers.go

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/devices"
)

const (
	msgEngineUnavailable   = "Audio engine not available"
	msgDevicesUnavailable  = "Device manager not available"
	msgSettingsUnavailable = "Config manager not available"
	msgHistoryUnavailable  = "Metrics history not available"

	msgCommandProcessed = "Audio command processed"
)

// Params flattens the query string into a name to value map. When a name
// repeats, the last occurrence wins.
func Params(r *http.Request) map[string]string {
	values := r.URL.Query()
	params := make(map[string]string, len(values))

	for name, all := range values {
		if len(all) > 0 {
			params[name] = all[len(all)-1]
		}
	}

	return params
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) getDevices(w http.ResponseWriter, _ *http.Request) {
	if s.devices == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgDevicesUnavailable)
		return
	}

	list := s.devices.Devices()
	out := devicesResponse{Devices: make([]deviceEntry, 0, len(list))}

	for _, d := range list {
		out.Devices = append(out.Devices, deviceEntry{
			ID:     d.ID,
			Name:   d.Name,
			Type:   string(d.Type),
			Status: string(d.Status),
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	if s.settings == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgSettingsUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, configResponse{Config: s.settings.AudioConfig()})
}

// postConfig merges the request body onto the current configuration, so
// clients may send only the fields they change.
func (s *Server) postConfig(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgSettingsUnavailable)
		return
	}

	cfg := s.settings.AudioConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := s.settings.SetAudioConfig(cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, configResponse{Config: cfg})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{Status: statusBlock{
		Server:        "online",
		AudioEngine:   availability(s.engine != nil && s.engine.Ready()),
		DeviceManager: availability(s.devices != nil),
		ConfigManager: availability(s.settings != nil),
	}})
}

func (s *Server) playAudio(w http.ResponseWriter, _ *http.Request) {
	if s.engine == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgEngineUnavailable)
		return
	}

	s.engine.Play()
	s.writeJSON(w, http.StatusOK, resultResponse{Result: "success", Message: msgCommandProcessed})
}

func (s *Server) pauseAudio(w http.ResponseWriter, _ *http.Request) {
	if s.engine == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgEngineUnavailable)
		return
	}

	s.engine.Pause()
	s.writeJSON(w, http.StatusOK, resultResponse{Result: "success", Message: msgCommandProcessed})
}

func (s *Server) stopAudio(w http.ResponseWriter, _ *http.Request) {
	if s.engine == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgEngineUnavailable)
		return
	}

	s.engine.StopPlayback()
	s.writeJSON(w, http.StatusOK, resultResponse{Result: "success", Message: msgCommandProcessed})
}

func (s *Server) getMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.engine == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgEngineUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, metricsResponse{Metrics: s.engine.Snapshot()})
}

func (s *Server) getHistory(w http.ResponseWriter, _ *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgHistoryUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{History: s.history.GetPoints()})
}

// activateDevice switches the selected device and propagates the choice to
// the settings store and the engine when they are wired.
func (s *Server) activateDevice(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgDevicesUnavailable)
		return
	}

	id, err := strconv.Atoi(Params(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing or invalid device id")
		return
	}

	if err := s.devices.Activate(id); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, devices.ErrDeviceNotFound) {
			status = http.StatusNotFound
		}

		s.writeError(w, status, err.Error())

		return
	}

	if s.settings != nil {
		s.settings.SetActiveDevice(id)
	}

	if s.engine != nil {
		s.engine.SetActiveDevice(id)
	}

	s.writeJSON(w, http.StatusOK, resultResponse{
		Result:  "success",
		Message: fmt.Sprintf("Device %d activated", id),
	})
}

func availability(ok bool) string {
	if ok {
		return "online"
	}

	return "offline"
}
