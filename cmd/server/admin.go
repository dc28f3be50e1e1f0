package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/estimator/internal/pricing"
)

func (s *server) handleAdminModel(w http.ResponseWriter, r *http.Request) {
	model, err := s.store.GetModel(r.Context(), queryFlag(r, "includeInactive"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// project types

type projectTypeRequest struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"displayName"`
	BaseRateILS float64 `json:"baseRateIls"`
	Order       int     `json:"order"`
	Active      *bool   `json:"active"`
}

func (req projectTypeRequest) projectType() pricing.ProjectType {
	return pricing.ProjectType{
		Key:         req.Key,
		DisplayName: req.DisplayName,
		BaseRateILS: req.BaseRateILS,
		Order:       req.Order,
		Active:      activeOr(req.Active, true),
	}
}

func (s *server) handleProjectTypesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListProjectTypes(r.Context(), true)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleProjectTypesCreate(w http.ResponseWriter, r *http.Request) {
	var req projectTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.store.CreateProjectType(r.Context(), req.projectType())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleProjectTypesUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req projectTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.UpdateProjectType(r.Context(), id, req.projectType()); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProjectTypesDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteProjectType(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProjectTypesActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	active, ok := decodeActive(w, r)
	if !ok {
		return
	}
	if err := s.store.SetProjectTypeActive(r.Context(), id, active); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// features

type featureRequest struct {
	Key            string  `json:"key"`
	DisplayName    string  `json:"displayName"`
	DefaultCostILS float64 `json:"defaultCostIls"`
	Order          int     `json:"order"`
	Active         *bool   `json:"active"`
}

func (req featureRequest) feature() pricing.Feature {
	return pricing.Feature{
		Key:            req.Key,
		DisplayName:    req.DisplayName,
		DefaultCostILS: req.DefaultCostILS,
		Order:          req.Order,
		Active:         activeOr(req.Active, true),
	}
}

func (s *server) handleFeaturesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListFeatures(r.Context(), true)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleFeaturesCreate(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.store.CreateFeature(r.Context(), req.feature())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleFeaturesUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req featureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.UpdateFeature(r.Context(), id, req.feature()); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleFeaturesDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteFeature(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleFeaturesActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	active, ok := decodeActive(w, r)
	if !ok {
		return
	}
	if err := s.store.SetFeatureActive(r.Context(), id, active); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// multiplier groups and options

type optionRequest struct {
	GroupKey    string  `json:"groupKey,omitempty"`
	Key         string  `json:"optionKey"`
	DisplayName string  `json:"displayName"`
	Value       float64 `json:"value"`
	IsFixed     bool    `json:"isFixed"`
	Order       int     `json:"order"`
	Active      *bool   `json:"active"`
}

func (req optionRequest) option() pricing.MultiplierOption {
	return pricing.MultiplierOption{
		Key:         req.Key,
		DisplayName: req.DisplayName,
		Value:       req.Value,
		IsFixed:     req.IsFixed,
		Order:       req.Order,
		Active:      activeOr(req.Active, true),
	}
}

type groupRequest struct {
	Key         string          `json:"key"`
	DisplayName string          `json:"displayName"`
	Order       int             `json:"order"`
	Active      *bool           `json:"active"`
	Options     []optionRequest `json:"options"`
}

func (req groupRequest) group() pricing.MultiplierGroup {
	g := pricing.MultiplierGroup{
		Key:         req.Key,
		DisplayName: req.DisplayName,
		Order:       req.Order,
		Active:      activeOr(req.Active, true),
	}
	for _, opt := range req.Options {
		g.Options = append(g.Options, opt.option())
	}
	return g
}

func (s *server) handleGroupsList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListMultiplierGroups(r.Context(), true)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleGroupsCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.store.CreateMultiplierGroup(r.Context(), req.group())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleGroupsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.UpdateMultiplierGroup(r.Context(), id, req.group()); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleGroupsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteMultiplierGroup(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleGroupsActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	active, ok := decodeActive(w, r)
	if !ok {
		return
	}
	if err := s.store.SetMultiplierGroupActive(r.Context(), id, active); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleOptionsCreate(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.GroupKey == "" {
		writeError(w, http.StatusBadRequest, "groupKey is required")
		return
	}
	rec, err := s.store.CreateMultiplierOption(r.Context(), req.GroupKey, req.option())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleOptionsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req optionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.UpdateMultiplierOption(r.Context(), id, req.option()); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleOptionsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteMultiplierOption(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleOptionsActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	active, ok := decodeActive(w, r)
	if !ok {
		return
	}
	if err := s.store.SetMultiplierOptionActive(r.Context(), id, active); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// meta

func (s *server) handleMetaGet(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.GetMeta(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// handleMetaSet stores the raw JSON body as the value of the meta key.
func (s *server) handleMetaSet(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	setting, err := s.store.SetMetaRaw(r.Context(), chi.URLParam(r, "key"), raw)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": setting.Key(), "value": setting})
}

// discounts

type discountRequest struct {
	Code      string               `json:"code"`
	Type      pricing.DiscountType `json:"discountType"`
	Amount    float64              `json:"amount"`
	Currency  string               `json:"currency"`
	AppliesTo json.RawMessage      `json:"appliesTo"`
}

func (req discountRequest) discount() pricing.Discount {
	return pricing.Discount{
		Code:      req.Code,
		Type:      req.Type,
		Amount:    req.Amount,
		Currency:  req.Currency,
		AppliesTo: pricing.ParseScope(req.AppliesTo),
	}
}

func (s *server) handleDiscountsList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListDiscounts(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleDiscountsCreate(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.store.CreateDiscount(r.Context(), req.discount())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleDiscountsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.store.UpdateDiscount(r.Context(), id, req.discount()); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDiscountsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteDiscount(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDiscountsActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	active, ok := decodeActive(w, r)
	if !ok {
		return
	}
	if err := s.store.SetDiscountActive(r.Context(), id, active); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intake

func (s *server) handleIntakeList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListIntakes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleIntakeDetail(w http.ResponseWriter, r *http.Request) {
	intake, err := s.store.GetIntake(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intake)
}
