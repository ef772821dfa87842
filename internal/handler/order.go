package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/lifecycle"
	"cafehub/internal/mw"
	"cafehub/internal/payment"
)

func CreateOrderHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lifecycle.CreateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		order, err := ctrl.Create(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusCreated, order)
	}
}

func GetOrderHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := ctrl.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, order)
	}
}

func ListOrdersHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := ctrl.List(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, orders)
	}
}

type actionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func ConfirmOrderHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		_ = decodeBody(r, &req) // body optional

		order, err := ctrl.Approve(r.Context(), chi.URLParam(r, "id"), mw.Actor(r.Context()), req.Notes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, order)
	}
}

func RejectOrderHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		order, err := ctrl.Reject(r.Context(), chi.URLParam(r, "id"), mw.Actor(r.Context()), req.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, order)
	}
}

func ServeOrderHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := ctrl.MarkServed(r.Context(), chi.URLParam(r, "id"), mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, order)
	}
}

// CheckoutHandler registers the order with the payment gateway and
// returns the gateway order id the storefront passes to the checkout
// widget.
func CheckoutHandler(ctrl *lifecycle.Controller, gateway *payment.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := ctrl.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		gatewayOrderID, err := gateway.CreateOrder(r.Context(), int64(order.Total*100), "INR", order.OrderNumber)
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusOK, map[string]string{
			"gateway_order_id": gatewayOrderID,
			"order_id":         order.ID,
		})
	}
}

func PaymentHandler(ctrl *lifecycle.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var conf lifecycle.PaymentConfirmation
		if err := decodeBody(r, &conf); err != nil {
			writeError(w, err)
			return
		}

		order, err := ctrl.ConfirmPayment(r.Context(), chi.URLParam(r, "id"), conf)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, order)
	}
}
