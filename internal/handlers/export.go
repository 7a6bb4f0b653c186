package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/wayfarerhq/wayfarer/internal/services"
)

type ExportHandler struct {
	exportService services.ExportServiceInterface
}

func NewExportHandler(exportService services.ExportServiceInterface) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ICS streams the trip's itinerary as an iCalendar document.
func (h *ExportHandler) ICS(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	cal, err := h.exportService.ICS(r.Context(), user.ID, tripID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error exporting itinerary: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "trip-"+tripID.String()+".ics"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal)); err != nil {
		log.Printf("Error writing calendar response: %v", err)
	}
}
