package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/model"
	"cafehub/internal/mw"
	"cafehub/internal/service"
)

func MenuHandler(catalog *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menu, err := catalog.Menu(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, menu)
	}
}

func ListProductsHandler(catalog *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := catalog.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, products)
	}
}

func CreateProductHandler(catalog *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.Product
		if err := decodeBody(r, &p); err != nil {
			writeError(w, err)
			return
		}

		created, err := catalog.Create(r.Context(), p, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, created)
	}
}

func UpdateProductHandler(catalog *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.Product
		if err := decodeBody(r, &p); err != nil {
			writeError(w, err)
			return
		}
		p.ID = chi.URLParam(r, "id")

		updated, err := catalog.Update(r.Context(), p, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, updated)
	}
}

// StockHandler applies an inventory dispatch delta to one product.
func StockHandler(catalog *service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Delta int `json:"delta"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		product, err := catalog.AdjustStock(r.Context(), chi.URLParam(r, "id"), req.Delta, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, product)
	}
}
