package http

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"credit-sales/agent"
	"credit-sales/logging"
)

type ToolHandler struct {
	tools  *agent.Toolset
	logger *zap.Logger
}

func NewToolHandler(tools *agent.Toolset, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{tools: tools, logger: logging.OrNop(logger)}
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type toolResponse struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// ListTools handles GET /agent/tools.
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	tools := h.tools.Tools()
	out := make([]toolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolInfo{Name: t.Name, Description: t.Description})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

// CallTool handles POST /agent/tools/{name}. The raw body is the tool input
// and the tool's answer, errors included, comes back with a 200.
func (h *ToolHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	name := r.PathValue("name")
	input, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out, err := h.tools.Call(r.Context(), name, string(input))
	if errors.Is(err, agent.ErrUnknownTool) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toolResponse{Tool: name, Output: out})
}
