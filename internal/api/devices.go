package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDevices returns the status of every bridged device.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.bridge.Devices()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns the status of one device by configured name.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, ok := s.bridge.Device(name)
	if !ok {
		writeNotFound(w, "no device named "+name)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleDeviceTypes returns descriptions of every registered device
// type: capabilities, topic roles, and recognised options with their
// defaults.
func (s *Server) handleDeviceTypes(w http.ResponseWriter, _ *http.Request) {
	types := s.bridge.DescribeTypes()
	writeJSON(w, http.StatusOK, map[string]any{
		"types": types,
		"count": len(types),
	})
}
