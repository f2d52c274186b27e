package handler

import (
	"bytes"
	"net/http"

	"fxconverter/internal/converter"
	"fxconverter/internal/render"

	"github.com/sirupsen/logrus"
)

// Page renders the converter form of the caller's session.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	conv, err := h.converterFor(w, r)
	if err != nil {
		h.sessionError(w, "Page", err)
		return
	}
	writePage(w, http.StatusOK, h.settle(r.Context(), conv))
}

// Submit applies the form fields and redirects back to the page.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	conv, err := h.converterFor(w, r)
	if err != nil {
		h.sessionError(w, "Submit", err)
		return
	}
	if err = r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	var changes converter.Changes
	if _, ok := r.PostForm["amount"]; ok {
		amount := r.PostForm.Get("amount")
		changes.Amount = &amount
	}
	if _, ok := r.PostForm["from"]; ok {
		from := r.PostForm.Get("from")
		changes.From = &from
	}
	if _, ok := r.PostForm["to"]; ok {
		to := r.PostForm.Get("to")
		changes.To = &to
	}

	if err = conv.Apply(changes); err != nil {
		if isValidationError(err) {
			state := h.settle(r.Context(), conv)
			state.Error = err.Error()
			writePage(w, http.StatusBadRequest, state)
			return
		}
		h.sessionError(w, "Submit", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writePage(w http.ResponseWriter, status int, state converter.State) {
	var buf bytes.Buffer
	if err := render.HTML(&buf, state); err != nil {
		logrus.WithError(err).Error("rendering page failed")
		writeError(w, http.StatusInternalServerError, "ups, couldn't render the page this time")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
