package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/estimator/internal/pricing"
	"github.com/Simplici0/estimator/internal/store"
)

func (s *server) handlePublicModel(w http.ResponseWriter, r *http.Request) {
	model, err := s.store.GetModel(r.Context(), false)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *server) handleDiscountLookup(w http.ResponseWriter, r *http.Request) {
	discount, err := s.store.LookupDiscount(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if discount == nil {
		writeError(w, http.StatusNotFound, "discount code not found")
		return
	}
	writeJSON(w, http.StatusOK, discount)
}

type estimateRequest struct {
	Inputs       pricing.Inputs `json:"inputs"`
	DiscountCode string         `json:"discountCode"`
	Strict       bool           `json:"strict"`
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	breakdown, err := s.store.Estimate(r.Context(), req.Inputs, req.DiscountCode, pricing.Options{Strict: req.Strict})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

type intakeRequest struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Company      string         `json:"company"`
	Message      string         `json:"message"`
	DiscountCode string         `json:"discountCode"`
	Inputs       pricing.Inputs `json:"inputs"`
}

func (s *server) handleIntakeCreate(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	breakdown, err := s.store.Estimate(r.Context(), req.Inputs, req.DiscountCode, pricing.Options{})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	saved, err := s.store.CreateIntake(r.Context(), store.IntakeRequest{
		Name:         req.Name,
		Email:        req.Email,
		Company:      req.Company,
		Message:      req.Message,
		DiscountCode: req.DiscountCode,
		Inputs:       req.Inputs,
		Breakdown:    breakdown,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
