package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"atlas-ads/internal/core/port"
)

// handleAnalytics returns delivery statistics. An optional `campaign_id`
// query parameter restricts the report to one campaign; without it all
// campaigns are returned. Invalid ids produce 400, unknown campaigns 404.
func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	var campaignID *uuid.UUID
	if raw := r.URL.Query().Get("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeDetail(w, http.StatusBadRequest, "invalid campaign_id")
			return
		}
		campaignID = &id
	}

	stats, err := h.svc.Stats(r.Context(), campaignID)
	switch {
	case errors.Is(err, port.ErrCampaignNotFound):
		h.writeDetail(w, http.StatusNotFound, "Campaign not found")
		return
	case err != nil:
		h.logger.Error("stats error", slog.Any("error", err))
		h.writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}
