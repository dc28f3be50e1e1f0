package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/estimator/internal/pricing"
	"github.com/Simplici0/estimator/internal/store"
)

func boolPtr(v bool) *bool { return &v }

func TestAdminProjectTypeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do(http.MethodPost, "/api/admin/project-types", projectTypeRequest{Key: "PORTFOLIO", BaseRateILS: 6000, Order: 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[store.ProjectTypeRecord](t, rec)
	require.True(t, created.Active)

	rec = ts.do(http.MethodPost, "/api/admin/project-types", projectTypeRequest{Key: "PORTFOLIO", BaseRateILS: 1})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/project-types", projectTypeRequest{Key: "NEG", BaseRateILS: -5})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	path := fmt.Sprintf("/api/admin/project-types/%d", created.ID)
	rec = ts.do(http.MethodPut, path, projectTypeRequest{Key: "PORTFOLIO", DisplayName: "Portfolio", BaseRateILS: 6500, Order: 10})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodPost, "/api/estimates", estimateRequest{Inputs: pricing.Inputs{ProjectTypeKey: "PORTFOLIO"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 6500.0, decodeBody[pricing.Breakdown](t, rec).BaseCost)

	rec = ts.do(http.MethodPost, path+"/active", activeRequest{Active: boolPtr(false)})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodPost, "/api/estimates", estimateRequest{Inputs: pricing.Inputs{ProjectTypeKey: "PORTFOLIO"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(http.MethodPost, path+"/active", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/admin/project-types/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminFeatureLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do(http.MethodPost, "/api/admin/features", featureRequest{Key: "chat", DefaultCostILS: 1200, Active: boolPtr(false)})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[store.FeatureRecord](t, rec)
	require.False(t, created.Active)

	path := fmt.Sprintf("/api/admin/features/%d", created.ID)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, path+"/active", activeRequest{Active: boolPtr(true)}).Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPut, path, featureRequest{Key: "chat", DefaultCostILS: 1400}).Code)

	features := decodeBody[[]store.FeatureRecord](t, ts.do(http.MethodGet, "/api/admin/features", nil))
	var found bool
	for _, f := range features {
		if f.Key == "chat" {
			found = true
			require.Equal(t, 1400.0, f.DefaultCostILS)
		}
	}
	require.True(t, found)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, path, nil).Code)
}

func TestAdminMultiplierGroupsAndOptions(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do(http.MethodPost, "/api/admin/multiplier-groups", groupRequest{
		Key:   "support",
		Order: 9,
		Options: []optionRequest{
			{Key: "none", Value: 1, Order: 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	group := decodeBody[store.MultiplierGroupRecord](t, rec)
	require.Len(t, group.Options, 1)
	require.True(t, group.Options[0].Active)

	rec = ts.do(http.MethodPost, "/api/admin/multiplier-options", optionRequest{GroupKey: "support", Key: "premium", Value: 1.2, Order: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	option := decodeBody[store.MultiplierOptionRecord](t, rec)

	rec = ts.do(http.MethodPost, "/api/admin/multiplier-options", optionRequest{Key: "orphan", Value: 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, "/api/admin/multiplier-options", optionRequest{GroupKey: "missing", Key: "x", Value: 1})
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodPost, "/api/admin/multiplier-options", optionRequest{GroupKey: "support", Key: "zero", Value: 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	optionPath := fmt.Sprintf("/api/admin/multiplier-options/%d", option.ID)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPut, optionPath, optionRequest{Key: "premium", Value: 1.4, Order: 0}).Code)

	model := decodeBody[pricing.Model](t, ts.do(http.MethodGet, "/api/admin/pricing/model", nil))
	var support *pricing.MultiplierGroup
	for i := range model.MultiplierGroups {
		if model.MultiplierGroups[i].Key == "support" {
			support = &model.MultiplierGroups[i]
		}
	}
	require.NotNil(t, support)
	require.Equal(t, "premium", support.DefaultOptionKey)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, optionPath+"/active", activeRequest{Active: boolPtr(false)}).Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, optionPath, nil).Code)

	groupPath := fmt.Sprintf("/api/admin/multiplier-groups/%d", group.ID)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPut, groupPath, groupRequest{Key: "support", DisplayName: "Support plan"}).Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, groupPath+"/active", activeRequest{Active: boolPtr(false)}).Code)

	inactive := decodeBody[pricing.Model](t, ts.do(http.MethodGet, "/api/admin/pricing/model?includeInactive=1", nil))
	require.Len(t, inactive.MultiplierGroups, 5)
	active := decodeBody[pricing.Model](t, ts.do(http.MethodGet, "/api/admin/pricing/model", nil))
	require.Len(t, active.MultiplierGroups, 4)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, groupPath, nil).Code)
}

func TestAdminMetaSettings(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do(http.MethodPut, "/api/admin/meta/pageCostPerPage", `1000`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"key":"pageCostPerPage","value":1000}`, rec.Body.String())

	rec = ts.do(http.MethodPut, "/api/admin/meta/rangePercent", `2`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPut, "/api/admin/meta/colour", `"blue"`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	meta := decodeBody[pricing.Meta](t, ts.do(http.MethodGet, "/api/admin/meta", nil))
	require.Equal(t, 1000.0, meta.PageCostPerPage)
	require.Equal(t, 0.18, meta.RangePercent)

	rec = ts.do(http.MethodPost, "/api/estimates", estimateRequest{Inputs: pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: 5}})
	require.Equal(t, 14000.0*0.8, decodeBody[pricing.Breakdown](t, rec).Total)
}

func TestAdminDiscounts(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	rec := ts.do(http.MethodPost, "/api/admin/discounts", `{
		"code": "shop20",
		"discountType": "percent",
		"amount": 20,
		"appliesTo": {"projectTypes": "ECOMMERCE", "excludedFeatures": ["i18n", 7]}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[store.DiscountRecord](t, rec)
	require.Equal(t, "SHOP20", created.Code)
	require.Equal(t, []string{"ECOMMERCE"}, created.AppliesTo.AllowedProjectTypes)
	require.Equal(t, []string{"i18n"}, created.AppliesTo.ExcludedFeatures)

	rec = ts.do(http.MethodPost, "/api/estimates", estimateRequest{
		Inputs:       pricing.Inputs{ProjectTypeKey: "WEBSITE", NumPages: 5},
		DiscountCode: "SHOP20",
	})
	require.Nil(t, decodeBody[pricing.Breakdown](t, rec).DiscountApplied)

	rec = ts.do(http.MethodPost, "/api/admin/discounts", discountRequest{Code: "SHOP20", Type: pricing.DiscountFixed, Amount: 5})
	require.Equal(t, http.StatusConflict, rec.Code)

	path := fmt.Sprintf("/api/admin/discounts/%d", created.ID)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPut, path, discountRequest{Code: "SHOP25", Type: pricing.DiscountPercent, Amount: 25}).Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, path+"/active", activeRequest{Active: boolPtr(false)}).Code)
	require.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/discounts/SHOP25", nil).Code)

	list := decodeBody[[]store.DiscountRecord](t, ts.do(http.MethodGet, "/api/admin/discounts", nil))
	require.Len(t, list, 3)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, path, nil).Code)
}
