package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"fxconverter/internal/converter"
	"fxconverter/internal/render"

	"github.com/sirupsen/logrus"
)

type StateResponse struct {
	Amount     string   `json:"amount" example:"10"`
	From       string   `json:"from" example:"USD"`
	To         string   `json:"to" example:"EUR"`
	Currencies []string `json:"currencies" example:"USD,EUR,JPY"`
	Result     string   `json:"result" example:"9.46"`
	ResultLine string   `json:"result_line" example:"10 USD = 9.46 EUR"`
	Error      string   `json:"error,omitempty" example:"Service is unavailable. Try again later"`
	Loading    bool     `json:"loading"`
	Version    uint64   `json:"version" example:"7"`
}

type UpdateStateRequest struct {
	Amount *string `json:"amount,omitempty" example:"10"`
	From   *string `json:"from,omitempty" example:"USD"`
	To     *string `json:"to,omitempty" example:"EUR"`
}

func newStateResponse(s converter.State) StateResponse {
	view := render.NewView(s)
	currencies := view.Options
	if currencies == nil {
		currencies = []string{}
	}
	return StateResponse{
		Amount:     view.Amount,
		From:       view.From,
		To:         view.To,
		Currencies: currencies,
		Result:     view.Result,
		ResultLine: view.ResultLine,
		Error:      view.Error,
		Loading:    view.Loading,
		Version:    s.Version,
	}
}

func writeState(w http.ResponseWriter, s converter.State) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(newStateResponse(s))
}

// GetState godoc
// @Summary Get converter state
// @Description Snapshot of the session's converter after in-flight requests settle
// @Tags Converter
// @Produce json
// @Success 200 {object} StateResponse
// @Failure 503 {object} errorResponse
// @Router /state [get]
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	conv, err := h.converterFor(w, r)
	if err != nil {
		h.sessionError(w, "GetState", err)
		return
	}
	writeState(w, h.settle(r.Context(), conv))
}

// UpdateState godoc
// @Summary Update converter inputs
// @Description Apply amount and currency changes, then return the settled state
// @Tags Converter
// @Accept json
// @Produce json
// @Param request body UpdateStateRequest true "Fields to change"
// @Success 200 {object} StateResponse
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /state [patch]
func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	var req UpdateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.converterFor(w, r)
	if err != nil {
		h.sessionError(w, "UpdateState", err)
		return
	}

	err = conv.Apply(converter.Changes{Amount: req.Amount, From: req.From, To: req.To})
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.sessionError(w, "UpdateState", err)
		return
	}
	writeState(w, h.settle(r.Context(), conv))
}

// GetStateText godoc
// @Summary Get converter as text
// @Description Plain-text rendering of the session's converter
// @Tags Converter
// @Produce plain
// @Success 200 {string} string
// @Failure 503 {object} errorResponse
// @Router /state/text [get]
func (h *Handler) GetStateText(w http.ResponseWriter, r *http.Request) {
	conv, err := h.converterFor(w, r)
	if err != nil {
		h.sessionError(w, "GetStateText", err)
		return
	}

	var buf bytes.Buffer
	if err = render.Text(&buf, h.settle(r.Context(), conv)); err != nil {
		logrus.WithError(err).WithField("handler", "GetStateText").Error("rendering text failed")
		writeError(w, http.StatusInternalServerError, "ups, couldn't render the converter this time")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
