package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"atlas-ads/internal/core/port"
)

// handleAdClick records a click for the creative named in the path. The
// callback carries only the ad id; clicks are never billed. Malformed
// ids produce 400, unknown ids 404.
func (h *Handler) handleAdClick(w http.ResponseWriter, r *http.Request) {
	adID, err := uuid.Parse(chi.URLParam(r, "ad_id"))
	if err != nil {
		h.writeDetail(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	err = h.svc.RegisterClick(r.Context(), adID)
	switch {
	case errors.Is(err, port.ErrAdNotFound):
		h.writeDetail(w, http.StatusNotFound, "Ad not found")
		return
	case err != nil:
		h.logger.Error("click error", slog.String("ad_id", adID.String()), slog.Any("error", err))
		h.writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
