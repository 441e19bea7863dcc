package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/dto"
	"github.com/ignatzorin/dispute-backend/internal/http/handlers/common"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/service"
)

// AdminDisputeHandler обслуживает очередь и решения администраторов.
// Роль проверяется middleware.RequireRole.
type AdminDisputeHandler struct {
	svc DisputeManager
}

func NewAdminDisputeHandler(s DisputeManager) *AdminDisputeHandler {
	return &AdminDisputeHandler{svc: s}
}

// ListDisputes GET /admin/disputes
func (h *AdminDisputeHandler) ListDisputes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	filter := models.AdminDisputeFilter{
		Unassigned: common.ParseBoolQuery(c, "unassigned"),
	}
	filter.Limit, filter.Offset = common.GetPagination(c)

	if raw := c.Query("status"); raw != "" {
		status, err := vo.NewDisputeStatus(raw)
		if err != nil {
			common.RespondServiceError(c, err)
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority, err := vo.NewDisputePriority(raw)
		if err != nil {
			common.RespondServiceError(c, err)
			return
		}
		filter.Priority = &priority
	}
	if common.ParseBoolQuery(c, "assigned_to_me") {
		filter.AssignedTo = &userID
	}

	list, err := h.svc.GetAdminDisputes(c.Request.Context(), filter)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDisputeListResponse(list.Disputes, list.Total, filter.Limit, filter.Offset))
}

// Stats GET /admin/disputes/stats
func (h *AdminDisputeHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetDisputeStats(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateStatus PUT /admin/disputes/:id/status
func (h *AdminDisputeHandler) UpdateStatus(c *gin.Context) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.UpdateDisputeStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.UpdateDisputeStatus(c.Request.Context(), id, req.Status, userID, req.Comment)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Assign POST /admin/disputes/:id/assign
func (h *AdminDisputeHandler) Assign(c *gin.Context) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.AssignDisputeRequest
	if c.Request.ContentLength > 0 {
		if err := common.BindAndValidate(c, &req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	adminID := userID
	if req.AdminID != nil {
		adminID = *req.AdminID
	}

	dispute, err := h.svc.AssignDispute(c.Request.Context(), id, adminID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Resolve POST /admin/disputes/:id/resolve
func (h *AdminDisputeHandler) Resolve(c *gin.Context) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.ResolveDispute(c.Request.Context(), id, service.ResolutionInput{
		ResolutionType:    req.ResolutionType,
		ResolutionSummary: req.ResolutionSummary,
		RefundAmount:      req.RefundAmount,
		FavoredParty:      req.FavoredParty,
	}, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Escalate POST /admin/disputes/:id/escalate
func (h *AdminDisputeHandler) Escalate(c *gin.Context) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.EscalateDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.EscalateDispute(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// CheckSLA POST /admin/disputes/sla/check
func (h *AdminDisputeHandler) CheckSLA(c *gin.Context) {
	count, err := h.svc.CheckSLABreaches(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SLACheckResponse{BreachedCount: count})
}
