package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/mw"
	"cafehub/internal/service"
)

func LoyaltyHandler(loyalty *service.LoyaltyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := chi.URLParam(r, "phone")

		customer, err := loyalty.Customer(r.Context(), phone)
		if err != nil {
			writeError(w, err)
			return
		}

		ledger, err := loyalty.Ledger(r.Context(), phone)
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusOK, map[string]interface{}{
			"customer": customer,
			"ledger":   ledger,
		})
	}
}

func RedeemHandler(loyalty *service.LoyaltyService, audit *service.AuditService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone   string `json:"phone"`
			OrderID string `json:"order_id"`
			Points  int    `json:"points"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		if err := loyalty.Redeem(r.Context(), req.Phone, req.OrderID, req.Points); err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), mw.Actor(r.Context()), "points-redeemed", "customer", req.Phone, "")
		writeData(w, http.StatusOK, map[string]string{"status": "redeemed"})
	}
}
