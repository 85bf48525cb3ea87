package eventapi

import (
	"encoding/json"
	"net/http"

	"github.com/linnemanlabs/logtriage/internal/triage"
)

// handleTriage routes one event-like row through the shared generation
// resource. Missing optional fields are fine; the prompt builder fills
// placeholders rather than rejecting.
func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req triage.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := a.svc.Triage(r.Context(), &req)
	if err != nil {
		category := triage.CategoryOf(err)
		a.logger.Error(r.Context(), err, "triage failed",
			"category", string(category), "event_id", req.EventID)
		writeJSON(w, triageStatus(category), map[string]string{
			"error":    categoryMessage(category),
			"category": string(category),
			"trace":    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleHealth triggers a resource load and reports readiness plus resource
// location, without entering the generation path.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := a.svc.Health(r.Context())
	status := http.StatusOK
	if !h.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func triageStatus(c triage.Category) int {
	switch c {
	case triage.CategoryNotReady:
		return http.StatusServiceUnavailable
	case triage.CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func categoryMessage(c triage.Category) string {
	switch c {
	case triage.CategoryNotReady:
		return "inference resource not ready, retry later"
	case triage.CategoryTimeout:
		return "generation timed out, retry later"
	default:
		return "generation failed"
	}
}
