package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML and JSON
type OpenAPIHandler struct {
	yamlDoc []byte
	jsonDoc []byte
}

// NewOpenAPIHandler parses the YAML document once so both formats can be
// served without per-request work.
func NewOpenAPIHandler(doc []byte) (*OpenAPIHandler, error) {
	var parsed map[string]any
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("OpenAPI document is empty")
	}
	jsonDoc, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI document to JSON: %w", err)
	}
	return &OpenAPIHandler{yamlDoc: doc, jsonDoc: jsonDoc}, nil
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(h.yamlDoc)
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonDoc)
}
