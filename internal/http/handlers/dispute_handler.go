package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
	"github.com/ignatzorin/dispute-backend/internal/dto"
	"github.com/ignatzorin/dispute-backend/internal/http/handlers/common"
	"github.com/ignatzorin/dispute-backend/internal/models"
	"github.com/ignatzorin/dispute-backend/internal/service"
)

// DisputeManager - операции над спорами, нужные HTTP слою.
type DisputeManager interface {
	CreateDispute(ctx context.Context, in service.CreateDisputeInput, actorID uuid.UUID) (*models.DisputeCase, error)
	GetDisputeByID(ctx context.Context, id int64) (*models.DisputeCase, error)
	GetDisputeByCaseNumber(ctx context.Context, caseNumber string) (*models.DisputeCase, error)
	GetUserDisputes(ctx context.Context, userID uuid.UUID, filter models.UserDisputeFilter) (*service.DisputeList, error)
	GetAdminDisputes(ctx context.Context, filter models.AdminDisputeFilter) (*service.DisputeList, error)
	UpdateDisputeStatus(ctx context.Context, id int64, newStatus string, actorID uuid.UUID, comment *string) (*models.DisputeCase, error)
	AssignDispute(ctx context.Context, id int64, adminID, actorID uuid.UUID) (*models.DisputeCase, error)
	ResolveDispute(ctx context.Context, id int64, in service.ResolutionInput, actorID uuid.UUID) (*models.DisputeCase, error)
	WithdrawDispute(ctx context.Context, id int64, userID uuid.UUID, reason *string) (*models.DisputeCase, error)
	SubmitEvidence(ctx context.Context, id int64, in service.EvidenceInput, actorID uuid.UUID) (*models.DisputeEvidence, error)
	GetDisputeEvidence(ctx context.Context, id int64) ([]models.DisputeEvidence, error)
	GetDisputeActivities(ctx context.Context, id int64) ([]models.DisputeActivity, error)
	EscalateDispute(ctx context.Context, id int64, actorID uuid.UUID, reason string) (*models.DisputeCase, error)
	CheckSLABreaches(ctx context.Context) (int, error)
	GetDisputeStats(ctx context.Context) (*models.DisputeStats, error)
	AddComment(ctx context.Context, id int64, actorID uuid.UUID, comment string) error
}

// DisputeHandler обслуживает маршруты сторон спора.
type DisputeHandler struct {
	svc DisputeManager
}

func NewDisputeHandler(s DisputeManager) *DisputeHandler {
	return &DisputeHandler{svc: s}
}

// CreateDispute POST /disputes
func (h *DisputeHandler) CreateDispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.CreateDispute(c.Request.Context(), service.CreateDisputeInput{
		RespondentID:        req.RespondentID,
		ContractID:          req.ContractID,
		EscrowTransactionID: req.EscrowTransactionID,
		DisputeType:         req.DisputeType,
		Priority:            req.Priority,
		Title:               req.Title,
		Description:         req.Description,
		DisputedAmount:      req.DisputedAmount,
		Currency:            req.Currency,
	}, userID)
	if errors.Is(err, service.ErrActiveDisputeExists) {
		c.JSON(http.StatusConflict, dto.ActiveDisputeConflictResponse{
			Error:   service.ErrActiveDisputeExists.Message,
			Dispute: dispute,
		})
		return
	}
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// ListMyDisputes GET /disputes/my
func (h *DisputeHandler) ListMyDisputes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	filter := models.UserDisputeFilter{}
	filter.Limit, filter.Offset = common.GetPagination(c)
	if raw := c.Query("status"); raw != "" {
		status, err := vo.NewDisputeStatus(raw)
		if err != nil {
			common.RespondServiceError(c, err)
			return
		}
		filter.Status = &status
	}

	list, err := h.svc.GetUserDisputes(c.Request.Context(), userID, filter)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDisputeListResponse(list.Disputes, list.Total, filter.Limit, filter.Offset))
}

// GetDispute GET /disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	dispute, ok := h.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// GetDisputeByCaseNumber GET /disputes/number/:caseNumber
func (h *DisputeHandler) GetDisputeByCaseNumber(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dispute, err := h.svc.GetDisputeByCaseNumber(c.Request.Context(), c.Param("caseNumber"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	if dispute == nil || !canView(c, dispute, userID) {
		common.RespondNotFound(c, "dispute not found")
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// WithdrawDispute POST /disputes/:id/withdraw
func (h *DisputeHandler) WithdrawDispute(c *gin.Context) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.WithdrawDisputeRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := common.BindAndValidate(c, &req); err != nil && !errors.Is(err, io.EOF) {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	dispute, err := h.svc.WithdrawDispute(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// SubmitEvidence POST /disputes/:id/evidence
func (h *DisputeHandler) SubmitEvidence(c *gin.Context) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.SubmitEvidenceRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	evidence, err := h.svc.SubmitEvidence(c.Request.Context(), id, service.EvidenceInput{
		EvidenceType: req.EvidenceType,
		Title:        req.Title,
		Description:  req.Description,
		FileURL:      req.FileURL,
		FileName:     req.FileName,
	}, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, evidence)
}

// ListEvidence GET /disputes/:id/evidence
func (h *DisputeHandler) ListEvidence(c *gin.Context) {
	dispute, ok := h.loadVisible(c)
	if !ok {
		return
	}

	evidence, err := h.svc.GetDisputeEvidence(c.Request.Context(), dispute.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	if evidence == nil {
		evidence = []models.DisputeEvidence{}
	}
	c.JSON(http.StatusOK, evidence)
}

// ListActivities GET /disputes/:id/activities
func (h *DisputeHandler) ListActivities(c *gin.Context) {
	dispute, ok := h.loadVisible(c)
	if !ok {
		return
	}

	activities, err := h.svc.GetDisputeActivities(c.Request.Context(), dispute.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	if activities == nil {
		activities = []models.DisputeActivity{}
	}
	c.JSON(http.StatusOK, activities)
}

// AddComment POST /disputes/:id/comments
func (h *DisputeHandler) AddComment(c *gin.Context) {
	dispute, ok := h.loadVisible(c)
	if !ok {
		return
	}
	userID, _ := common.CurrentUserID(c)

	var req dto.AddCommentRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.AddComment(c.Request.Context(), dispute.ID, userID, req.Comment); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.SuccessResponse{Message: "comment added"})
}

// loadVisible загружает спор из :id и проверяет, что вызывающий - сторона спора или администратор.
// Чужой спор выглядит как отсутствующий.
func (h *DisputeHandler) loadVisible(c *gin.Context) (*models.DisputeCase, bool) {
	userID, id, ok := actorAndID(c)
	if !ok {
		return nil, false
	}

	dispute, err := h.svc.GetDisputeByID(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return nil, false
	}
	if dispute == nil || !canView(c, dispute, userID) {
		common.RespondNotFound(c, "dispute not found")
		return nil, false
	}
	return dispute, true
}

func canView(c *gin.Context, dispute *models.DisputeCase, userID uuid.UUID) bool {
	return common.IsAdmin(c) || dispute.IsParty(userID)
}

func actorAndID(c *gin.Context) (uuid.UUID, int64, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return uuid.Nil, 0, false
	}

	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return uuid.Nil, 0, false
	}
	return userID, id, true
}
