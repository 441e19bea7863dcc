package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/dto"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/service"
)

func TestAdminDisputeHandler_ListDisputes_Filters(t *testing.T) {
	adminID := uuid.New()
	svc := new(mockDisputeManager)
	urgent := vo.PriorityUrgent
	svc.On("GetAdminDisputes", mock.Anything, models.AdminDisputeFilter{
		Priority:   &urgent,
		AssignedTo: &adminID,
		Limit:      20,
	}).Return(&service.DisputeList{Disputes: []models.DisputeCase{{ID: 1}}, Total: 1}, nil)
	r := newTestEngine(adminID, models.RoleAdmin)
	r.GET("/admin/disputes", NewAdminDisputeHandler(svc).ListDisputes)

	w := doJSON(r, http.MethodGet, "/admin/disputes?priority=urgent&assigned_to_me=true", nil)

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	w = doJSON(r, http.MethodGet, "/admin/disputes?priority=whenever", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminDisputeHandler_Assign_DefaultsToCaller(t *testing.T) {
	adminID := uuid.New()
	svc := new(mockDisputeManager)
	svc.On("AssignDispute", mock.Anything, int64(6), adminID, adminID).Return(&models.DisputeCase{ID: 6, AssignedAdminID: &adminID}, nil)
	r := newTestEngine(adminID, models.RoleAdmin)
	r.POST("/admin/disputes/:id/assign", NewAdminDisputeHandler(svc).Assign)

	w := doJSON(r, http.MethodPost, "/admin/disputes/6/assign", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAdminDisputeHandler_Assign_NotAdmin(t *testing.T) {
	adminID, target := uuid.New(), uuid.New()
	svc := new(mockDisputeManager)
	svc.On("AssignDispute", mock.Anything, int64(6), target, adminID).Return(nil, service.ErrNotAdmin)
	r := newTestEngine(adminID, models.RoleAdmin)
	r.POST("/admin/disputes/:id/assign", NewAdminDisputeHandler(svc).Assign)

	w := doJSON(r, http.MethodPost, "/admin/disputes/6/assign", map[string]uuid.UUID{"admin_id": target})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminDisputeHandler_Resolve(t *testing.T) {
	adminID := uuid.New()
	svc := new(mockDisputeManager)
	svc.On("ResolveDispute", mock.Anything, int64(3), mock.MatchedBy(func(in service.ResolutionInput) bool {
		return in.FavoredParty == "initiator" && in.RefundAmount != nil && in.RefundAmount.Equal(decimal.NewFromInt(100))
	}), adminID).Return(&models.DisputeCase{ID: 3, Status: vo.DisputeStatusResolvedFavorInitiator}, nil)
	r := newTestEngine(adminID, models.RoleAdmin)
	r.POST("/admin/disputes/:id/resolve", NewAdminDisputeHandler(svc).Resolve)

	w := doJSON(r, http.MethodPost, "/admin/disputes/3/resolve", map[string]string{
		"resolution_type":    "full_refund",
		"resolution_summary": "Provider no-show confirmed",
		"refund_amount":      "100.00",
		"favored_party":      "initiator",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var got models.DisputeCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, vo.DisputeStatusResolvedFavorInitiator, got.Status)
}

func TestAdminDisputeHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	adminID := uuid.New()
	svc := new(mockDisputeManager)
	svc.On("UpdateDisputeStatus", mock.Anything, int64(1), "mediation", adminID, (*string)(nil)).
		Return(nil, vo.ValidateTransition(vo.DisputeStatusOpen, vo.DisputeStatusMediation))
	r := newTestEngine(adminID, models.RoleAdmin)
	r.PUT("/admin/disputes/:id/status", NewAdminDisputeHandler(svc).UpdateStatus)

	w := doJSON(r, http.MethodPut, "/admin/disputes/1/status", map[string]string{"status": "mediation"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "cannot transition dispute from open to mediation")
}

func TestAdminDisputeHandler_CheckSLA(t *testing.T) {
	svc := new(mockDisputeManager)
	svc.On("CheckSLABreaches", mock.Anything).Return(2, nil)
	r := newTestEngine(uuid.New(), models.RoleAdmin)
	r.POST("/admin/disputes/sla/check", NewAdminDisputeHandler(svc).CheckSLA)

	w := doJSON(r, http.MethodPost, "/admin/disputes/sla/check", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got dto.SLACheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.BreachedCount)
}

func TestAdminDisputeHandler_Stats(t *testing.T) {
	svc := new(mockDisputeManager)
	svc.On("GetDisputeStats", mock.Anything).Return(&models.DisputeStats{
		Total:    3,
		ByStatus: map[vo.DisputeStatus]int{vo.DisputeStatusOpen: 3},
	}, nil)
	r := newTestEngine(uuid.New(), models.RoleAdmin)
	r.GET("/admin/disputes/stats", NewAdminDisputeHandler(svc).Stats)

	w := doJSON(r, http.MethodGet, "/admin/disputes/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open":3`)
}
