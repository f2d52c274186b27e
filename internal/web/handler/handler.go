package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fxconverter/internal/converter"
	"fxconverter/internal/session"

	"github.com/sirupsen/logrus"
)

// CookieName carries the session id.
const CookieName = "fxconverter_session"

const defaultWaitTimeout = 5 * time.Second

type Sessions interface {
	Create() (string, *converter.Converter, error)
	Get(id string) (*converter.Converter, error)
}

type Handler struct {
	sessions    Sessions
	waitTimeout time.Duration
}

func NewHandler(sessions Sessions, waitTimeout time.Duration) *Handler {
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}
	return &Handler{sessions: sessions, waitTimeout: waitTimeout}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

// converterFor returns the converter of the request's session, starting a new
// session when the cookie is missing or no longer known.
func (h *Handler) converterFor(w http.ResponseWriter, r *http.Request) (*converter.Converter, error) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		conv, getErr := h.sessions.Get(cookie.Value)
		if getErr == nil {
			return conv, nil
		}
		if !errors.Is(getErr, session.ErrSessionNotFound) {
			return nil, getErr
		}
	}

	id, conv, err := h.sessions.Create()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return conv, nil
}

// settle waits for in-flight requests, giving up after waitTimeout so a slow
// backend yields a loading page instead of a hung one.
func (h *Handler) settle(ctx context.Context, conv *converter.Converter) converter.State {
	ctx, cancel := context.WithTimeout(ctx, h.waitTimeout)
	defer cancel()
	if err := conv.Wait(ctx); err != nil {
		logrus.WithError(err).Debug("rendering before requests settled")
	}
	return conv.Snapshot()
}

func (h *Handler) sessionError(w http.ResponseWriter, handlerName string, err error) {
	msg := "ups, couldn't start a session this time"
	logrus.WithError(err).WithField("handler", handlerName).Error(msg)
	writeError(w, http.StatusServiceUnavailable, msg)
}

func isValidationError(err error) bool {
	return errors.Is(err, converter.ErrAmountRequired) ||
		errors.Is(err, converter.ErrAmountInvalid) ||
		errors.Is(err, converter.ErrCurrencyInvalid) ||
		errors.Is(err, converter.ErrCurrencyUnsupported)
}
