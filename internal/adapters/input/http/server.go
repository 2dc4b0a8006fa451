package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/amimof/huego"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/domain/service"
	"myko-bridge/internal/ports"
)

// Server exposes the Myko lights through the Hue bridge API and the
// send_command service.
type Server struct {
	bridge  ports.BridgePort
	ip      string
	metrics http.Handler
}

func NewServer(bridge ports.BridgePort, ip string, metrics http.Handler) *Server {
	return &Server{
		bridge:  bridge,
		ip:      ip,
		metrics: metrics,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/description.xml", s.handleDescription)
	r.Post("/api", s.handleRegister)
	r.Route("/api/{user}", func(r chi.Router) {
		r.Get("/", s.handleFullState)
		r.Get("/lights", s.handleGetLights)
		r.Get("/lights/{id}", s.handleGetLight)
		r.Put("/lights/{id}/state", s.handleSetLightState)
	})
	r.Post("/services/myko/send_command", s.handleSendCommand)
	r.Get("/admin/lights", s.handleDiagnostics)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" ?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
<specVersion>
<major>1</major>
<minor>0</minor>
</specVersion>
<URLBase>http://%s:80/</URLBase>
<device>
<deviceType>urn:schemas-upnp-org:device:Basic:1</deviceType>
<friendlyName>Myko bridge (%s)</friendlyName>
<manufacturer>Royal Philips Electronics</manufacturer>
<manufacturerURL>http://www.philips.com</manufacturerURL>
<modelDescription>Philips hue Personal Wireless Lighting</modelDescription>
<modelName>Philips hue bridge 2012</modelName>
<modelNumber>929000226503</modelNumber>
<serialNumber>001788102201</serialNumber>
<UDN>uuid:2f402f80-da50-11e1-9b23-001788102201</UDN>
</device>
</root>`, s.ip, s.ip)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []map[string]interface{}{{"success": map[string]string{"username": "myko"}}})
}

func (s *Server) hueLights(r *http.Request) (map[string]*huego.Light, error) {
	snapshots, err := s.bridge.GetLights(r.Context())
	if err != nil {
		return nil, err
	}
	lights := make(map[string]*huego.Light, len(snapshots))
	for _, l := range snapshots {
		lights[l.ID] = toHueLight(l)
	}
	return lights, nil
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	lights, err := s.hueLights(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"lights": lights,
		"groups": map[string]interface{}{},
		"config": map[string]interface{}{
			"name":       "Myko bridge",
			"swversion":  "01003542",
			"apiversion": "1.11.0",
			"mac":        "00:17:88:10:22:01",
			"bridgeid":   "001788FFFE102201",
			"modelid":    "BSB001",
		},
	})
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.hueLights(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, lights)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	l, err := s.bridge.GetLight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toHueLight(l))
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var raw map[string]json.RawMessage
	var update hueStateUpdate
	if err := json.Unmarshal(body, &raw); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case update.turnsOff():
		err = s.bridge.TurnOff(r.Context(), id)
	case !update.empty():
		err = s.bridge.TurnOn(r.Context(), id, update.toRequest())
	}
	if err != nil {
		log.Warn().Err(err).Str("light", id).Msg("Failed to set light state")
		writeError(w, err)
		return
	}

	resp := make([]map[string]interface{}, 0, len(raw))
	for k, v := range raw {
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{
				fmt.Sprintf("/lights/%s/state/%s", id, k): v,
			},
		})
	}
	writeJSON(w, resp)
}

// sendCommandRequest accepts entity_id as a single id or a list.
type sendCommandRequest struct {
	EntityID json.RawMessage `json:"entity_id"`
	model.FieldCommand
}

func (req sendCommandRequest) entityIDs() ([]string, error) {
	var ids []string
	if err := json.Unmarshal(req.EntityID, &ids); err != nil {
		var one string
		if err := json.Unmarshal(req.EntityID, &one); err != nil {
			return nil, fmt.Errorf("entity_id must be a string or a list of strings")
		}
		ids = []string{one}
	}
	for i, id := range ids {
		ids[i] = strings.TrimPrefix(id, model.DeviceClassLight+".")
	}
	return ids, nil
}

func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	var req sendCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ids, err := req.entityIDs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Class == "" || len(ids) == 0 {
		http.Error(w, "entity_id and functionClass are required", http.StatusBadRequest)
		return
	}
	if err := s.bridge.SendCommand(r.Context(), ids, req.FieldCommand); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type diagnostic struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Available  bool                   `json:"available"`
	Power      model.Power            `json:"power"`
	ColorMode  model.ColorMode        `json:"color_mode"`
	Modes      []model.ColorMode      `json:"supported_color_modes"`
	MinMireds  int                    `json:"min_mireds,omitempty"`
	MaxMireds  int                    `json:"max_mireds,omitempty"`
	Attributes map[string]interface{} `json:"attributes"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	lights, err := s.bridge.GetLights(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]diagnostic, 0, len(lights))
	for _, l := range lights {
		out = append(out, diagnostic{
			ID:         l.ID,
			Name:       l.Name,
			Available:  l.Available,
			Power:      l.State.Power,
			ColorMode:  l.State.ColorMode,
			Modes:      l.Capabilities.Modes,
			MinMireds:  l.Capabilities.MinMireds,
			MaxMireds:  l.Capabilities.MaxMireds,
			Attributes: l.Attributes,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrLightNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ports.ErrConnectivity):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
