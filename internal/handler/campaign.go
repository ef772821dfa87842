package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cafehub/internal/model"
	"cafehub/internal/mw"
	"cafehub/internal/service"
)

func ActiveCampaignsHandler(campaigns *service.CampaignService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := campaigns.Active(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, list)
	}
}

func ListCampaignsHandler(campaigns *service.CampaignService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := campaigns.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, list)
	}
}

func CreateCampaignHandler(campaigns *service.CampaignService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c model.Campaign
		if err := decodeBody(r, &c); err != nil {
			writeError(w, err)
			return
		}

		created, err := campaigns.Create(r.Context(), c, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, created)
	}
}

func UpdateCampaignHandler(campaigns *service.CampaignService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c model.Campaign
		if err := decodeBody(r, &c); err != nil {
			writeError(w, err)
			return
		}
		c.ID = chi.URLParam(r, "id")

		updated, err := campaigns.Update(r.Context(), c, mw.Actor(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, updated)
	}
}
