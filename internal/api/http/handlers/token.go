package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"poolstats/internal/domain"
	"poolstats/internal/service"
	"poolstats/pkg/httputil"
)

func (a *Handler) Token(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")

	token, err := a.AggService.GetToken(r.Context(), addr)
	if errors.Is(err, service.ErrTokenNotFound) {
		_ = httputil.Error(w, r, http.StatusNotFound, "not_found", "token not found", nil)
		return
	}
	if err != nil {
		a.Log.Errorf("Token handler error: %s", err.Error())
		_ = httputil.Error(w, r, http.StatusInternalServerError, "internal", "failed to load token", nil)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, token, nil); err != nil {
		a.Log.Errorf("Token handler error: %s", err.Error())
	}
}

func (a *Handler) TokenPrice(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")

	price, err := a.AggService.GetTokenPrice(r.Context(), addr)
	if err != nil {
		a.Log.Errorf("TokenPrice handler error: %s", err.Error())
		_ = httputil.Error(w, r, http.StatusInternalServerError, "internal", "failed to load token price", nil)
		return
	}
	if price == nil {
		_ = httputil.Error(w, r, http.StatusNotFound, "not_found", "no reference price for token", nil)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, price, nil); err != nil {
		a.Log.Errorf("TokenPrice handler error: %s", err.Error())
	}
}

// Daily bucket for a token. ?day=<dayID> selects a specific day,
// default is the current one.
func (a *Handler) TokenDailyStats(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")

	dayID := domain.DayID(time.Now().Unix())
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			_ = httputil.Error(w, r, http.StatusBadRequest, "bad_request", "day must be a non-negative integer", nil)
			return
		}
		dayID = parsed
	}

	bucket, err := a.AggService.GetDailyStats(r.Context(), addr, dayID)
	if err != nil {
		a.Log.Errorf("TokenDailyStats handler error: %s", err.Error())
		_ = httputil.Error(w, r, http.StatusInternalServerError, "internal", "failed to load daily stats", nil)
		return
	}
	if bucket == nil {
		_ = httputil.Error(w, r, http.StatusNotFound, "not_found", "no stats for this day", nil)
		return
	}

	if err = httputil.JSON(w, http.StatusOK, bucket, nil); err != nil {
		a.Log.Errorf("TokenDailyStats handler error: %s", err.Error())
	}
}
