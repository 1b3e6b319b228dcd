package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mselser95/fpmm-quoter/internal/outcomes"
)

// DraftResponse is the state of an outcome draft after an edit.
type DraftResponse struct {
	ID           string             `json:"id"`
	Uniform      bool               `json:"uniform"`
	Outcomes     []outcomes.Outcome `json:"outcomes"`
	Total        float64            `json:"total"`
	TotalDisplay string             `json:"total_display"`
	SuggestMax   float64            `json:"suggest_max"`
	Messages     []string           `json:"messages"`

	// Applied reports whether the edit took effect; ignored edits leave the draft unchanged.
	Applied *bool `json:"applied,omitempty"`
}

type createDraftRequest struct {
	Outcomes []outcomes.Outcome `json:"outcomes"`
}

type outcomeRequest struct {
	Name        *string  `json:"name"`
	Probability *float64 `json:"probability"`
}

func newDraftResponse(id string, m *outcomes.Manager) DraftResponse {
	set := m.Outcomes()
	msgs := outcomes.Messages(set)
	if msgs == nil {
		msgs = []string{}
	}
	total := m.Total()
	return DraftResponse{
		ID:           id,
		Uniform:      m.Uniform(),
		Outcomes:     set,
		Total:        total,
		TotalDisplay: outcomes.FormatTotal(total),
		SuggestMax:   outcomes.SuggestMax(set),
		Messages:     msgs,
	}
}

func (h *handlers) writeDraft(w http.ResponseWriter, status int, id string, m *outcomes.Manager, applied *bool) {
	resp := newDraftResponse(id, m)
	resp.Applied = applied
	writeJSON(w, status, resp)
}

// draft loads the draft named by the {id} URL parameter, writing 404 when absent.
func (h *handlers) draft(w http.ResponseWriter, r *http.Request) (string, *outcomes.Manager, bool) {
	id := chi.URLParam(r, "id")
	m, ok := h.drafts.Get(id)
	if !ok {
		writeError(w, "draft not found", http.StatusNotFound)
		return "", nil, false
	}
	return id, m, true
}

func (h *handlers) createDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, o := range req.Outcomes {
		if o.Probability < 0 || o.Probability > 100 {
			writeError(w, "probabilities must be between 0 and 100", http.StatusBadRequest)
			return
		}
	}

	id, m := h.drafts.Create(req.Outcomes)
	h.writeDraft(w, http.StatusCreated, id, m, nil)
}

func (h *handlers) getDraft(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.draft(w, r)
	if !ok {
		return
	}
	h.writeDraft(w, http.StatusOK, id, m, nil)
}

func (h *handlers) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if !h.drafts.Delete(chi.URLParam(r, "id")) {
		writeError(w, "draft not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) addOutcome(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req outcomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	probability := m.SuggestMax()
	if req.Probability != nil {
		probability = *req.Probability
	}

	m.AddOutcome(name, probability)
	h.writeDraft(w, http.StatusOK, id, m, nil)
}

func (h *handlers) updateOutcome(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.draft(w, r)
	if !ok {
		return
	}
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req outcomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	applied := true
	if req.Name != nil {
		applied = m.SetName(index, *req.Name) && applied
	}
	if req.Probability != nil {
		applied = m.SetProbability(index, *req.Probability) && applied
	}
	h.writeDraft(w, http.StatusOK, id, m, &applied)
}

func (h *handlers) removeOutcome(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.draft(w, r)
	if !ok {
		return
	}
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	applied := m.RemoveOutcome(index)
	h.writeDraft(w, http.StatusOK, id, m, &applied)
}

func (h *handlers) toggleUniform(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.draft(w, r)
	if !ok {
		return
	}
	m.ToggleUniform()
	h.writeDraft(w, http.StatusOK, id, m, nil)
}
