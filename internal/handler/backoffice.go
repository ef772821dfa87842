package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/mw"
	"cafehub/internal/service"
)

func RequestRefundHandler(refunds *service.RefundService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderID string  `json:"order_id"`
			Amount  float64 `json:"amount"`
			Reason  string  `json:"reason"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		refund, err := refunds.Request(r.Context(), req.OrderID, req.Amount, req.Reason, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, refund)
	}
}

func DecideRefundHandler(refunds *service.RefundService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Approve bool `json:"approve"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		refund, err := refunds.Decide(r.Context(), chi.URLParam(r, "id"), req.Approve, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, refund)
	}
}

func ListRefundsHandler(refunds *service.RefundService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := refunds.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, list)
	}
}

func RecordWastageHandler(wastage *service.WastageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
			Note      string `json:"note"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		entry, err := wastage.Record(r.Context(), req.ProductID, req.Quantity, req.Note, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, entry)
	}
}

func ListWastageHandler(wastage *service.WastageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := wastage.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, list)
	}
}

func ListAuditHandler(audit *service.AuditService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		logs, err := audit.List(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, logs)
	}
}

func SendMessageHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Recipient string `json:"recipient"`
			Body      string `json:"body"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		msg, err := messages.Send(r.Context(), mw.Actor(r.Context()), req.Recipient, req.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, msg)
	}
}

func InboxHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := messages.Inbox(r.Context(), mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, msgs)
	}
}

func MarkReadHandler(messages *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := messages.MarkRead(r.Context(), chi.URLParam(r, "id"), mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, msg)
	}
}

func DashboardHandler(dashboard *service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := dashboard.Stats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, stats)
	}
}
