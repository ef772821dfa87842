package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/lifecycle"
	"cafehub/internal/printing"
)

func PrinterStatusHandler(jobs *printing.Jobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := jobs.Get(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, job)
	}
}

// PrinterRetryHandler re-enqueues the ticket for another dispatch
// attempt. Retries are operator triggered only.
func PrinterRetryHandler(jobs *printing.Jobs, tickets lifecycle.TicketQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		job, err := jobs.Get(r.Context(), orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := tickets.EnqueuePrint(r.Context(), orderID); err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusAccepted, job)
	}
}
