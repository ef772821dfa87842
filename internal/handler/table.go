package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/model"
	"cafehub/internal/mw"
	"cafehub/internal/service"
)

func CreateTableHandler(tables *service.TableService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Number int `json:"number"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		table, err := tables.Create(r.Context(), req.Number, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, table)
	}
}

func ListTablesHandler(tables *service.TableService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := tables.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, list)
	}
}

func TableByQRHandler(tables *service.TableService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, err := tables.GetByQRSlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, table)
	}
}

func TableStatusHandler(tables *service.TableService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		table, err := tables.SetStatus(r.Context(), chi.URLParam(r, "id"), model.TableStatus(req.Status), mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, table)
	}
}

func TableResetHandler(tables *service.TableService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, err := tables.Reset(r.Context(), chi.URLParam(r, "id"), mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, table)
	}
}
