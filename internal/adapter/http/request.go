package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"atlas-ads/internal/core/domain"
	"atlas-ads/internal/core/port"
)

// adRequestBody is the wire form of an ad request. Optional fields left
// out by the client mean "no constraint"; required fields are validated
// by the usecase before any side effect runs.
type adRequestBody struct {
	AppID      string `json:"app_id"`
	AppVersion string `json:"app_version"`
	OS         string `json:"os"`
	OSVersion  string `json:"os_version"`
	DeviceType string `json:"device_type"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`

	Gender string `json:"gender,omitempty"`
	Age    *int   `json:"age,omitempty"`

	Interests []string `json:"interests,omitempty"`
	AdTypes   []string `json:"ad_types,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// handleAdRequest serves ads to mobile apps. Malformed JSON or missing
// required fields produce 400; an empty eligible set produces 404 with a
// detail body; internal failures produce 500.
func (h *Handler) handleAdRequest(w http.ResponseWriter, r *http.Request) {
	var body adRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeDetail(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req := domain.AdRequest{
		AppID:      body.AppID,
		AppVersion: body.AppVersion,
		OS:         body.OS,
		OSVersion:  body.OSVersion,
		DeviceType: body.DeviceType,
		Width:      body.Width,
		Height:     body.Height,
		Country:    body.Country,
		Region:     body.Region,
		City:       body.City,
		Gender:     body.Gender,
		Age:        body.Age,
		Interests:  body.Interests,
		Limit:      body.Limit,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}
	for _, t := range body.AdTypes {
		req.AdTypes = append(req.AdTypes, domain.CreativeType(t))
	}

	ads, err := h.svc.ServeAds(r.Context(), &req)
	switch {
	case errors.Is(err, port.ErrValidation):
		h.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, port.ErrNoInventory):
		h.writeDetail(w, http.StatusNotFound, "No matching ads found")
		return
	case err != nil:
		h.logger.Error("serve ads error", slog.Any("error", err))
		h.writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, ads)
}

// clientIP extracts the originating address, honouring X-Forwarded-For
// set by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
