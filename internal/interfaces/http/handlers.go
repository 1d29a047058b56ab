package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/domain/entity"
	"github.com/assetdesk/assetdesk/internal/domain/workflow"
	"github.com/assetdesk/assetdesk/internal/report"
	"github.com/assetdesk/assetdesk/pkg/utils"
)

// actorKey is the gin context key holding the resolved actor
const actorKey = "actor"

// Handlers contains all HTTP request handlers
type Handlers struct {
	store   *store.Store
	reports *report.InventoryGenerator
	logger  Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(s *store.Store, reports *report.InventoryGenerator, logger Logger) *Handlers {
	return &Handlers{
		store:   s,
		reports: reports,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateUserRequest is the payload for creating a user
type CreateUserRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
	ManagerID  string `json:"manager_id"`
}

// UpdateUserRequest is the payload for a partial user update
type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	ManagerID  *string `json:"manager_id"`
	Status     *string `json:"status"`
}

// CreateEquipmentRequest is the payload for registering equipment
type CreateEquipmentRequest struct {
	ID      string `json:"id"`
	AssetID string `json:"asset_id" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Model   string `json:"model"`
}

// UpdateEquipmentRequest is the payload for a partial equipment update
type UpdateEquipmentRequest struct {
	Type             *string `json:"type"`
	Model            *string `json:"model"`
	Status           *string `json:"status"`
	AssignmentStatus *string `json:"assignment_status"`
	UserID           *string `json:"user_id"`
	UserName         *string `json:"user_name"`
	ClearUser        bool    `json:"clear_user"`
}

// CreateApprovalRequest is the payload for opening an approval request.
// The requester is always the authenticated actor; a beneficiary id makes
// the request delegated.
type CreateApprovalRequest struct {
	BeneficiaryID       string `json:"beneficiary_id"`
	EquipmentCategory   string `json:"equipment_category" binding:"required"`
	Reason              string `json:"reason"`
	Urgency             string `json:"urgency"`
	AssignedEquipmentID string `json:"assigned_equipment_id"`
}

// UpdateApprovalStatusRequest is the payload for an approval transition
type UpdateApprovalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// InspectReturnRequest is the payload for closing a return
type InspectReturnRequest struct {
	ToRepair bool `json:"to_repair"`
}

// CreateNoticeRequest is the payload for a system notice
type CreateNoticeRequest struct {
	Message string `json:"message" binding:"required"`
}

// SetSettingRequest is the payload for an operational setting
type SetSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// ActorMiddleware resolves the acting user from the X-Actor-Id header.
// Requests without a resolvable, active actor are rejected.
func (h *Handlers) ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-Actor-Id")
		if actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing X-Actor-Id header",
			})
			return
		}

		actor, ok := h.store.GetUser(actorID)
		if !ok || !actor.IsActive() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "unknown or inactive actor",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// actor returns the resolved acting user
func (h *Handlers) actor(c *gin.Context) *entity.User {
	value, _ := c.Get(actorKey)
	actor, ok := value.(entity.User)
	if !ok {
		return nil
	}
	return &actor
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.store.ListUsers()})
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, ok := h.store.GetUser(c.Param("id"))
	if !ok {
		h.respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		h.respondBadRequest(c, err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	user := entity.User{
		ID:         req.ID,
		Name:       utils.SanitizeString(req.Name),
		Email:      req.Email,
		Role:       entity.Role(req.Role),
		Department: req.Department,
		ManagerID:  req.ManagerID,
		Status:     entity.UserActive,
	}

	decision, err := h.store.AddUser(c.Request.Context(), h.actor(c), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(c, decision)
		return
	}

	created, _ := h.store.GetUser(user.ID)
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// UpdateUser handles PATCH /api/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}
	if req.Email != nil {
		if err := utils.ValidateEmail(*req.Email); err != nil {
			h.respondBadRequest(c, err.Error())
			return
		}
	}

	patch := entity.UserPatch{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		ManagerID:  req.ManagerID,
	}
	if req.Role != nil {
		role := entity.Role(*req.Role)
		patch.Role = &role
	}
	if req.Status != nil {
		status := entity.UserStatus(*req.Status)
		patch.Status = &status
	}

	id := c.Param("id")
	decision, err := h.store.UpdateUser(c.Request.Context(), h.actor(c), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(c, decision)
		return
	}

	updated, _ := h.store.GetUser(id)
	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// DeleteUser handles DELETE /api/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	decision, err := h.store.DeleteUser(c.Request.Context(), h.actor(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(c, decision)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListEquipment handles GET /api/equipment
func (h *Handlers) ListEquipment(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.store.ListEquipment()})
}

// GetEquipment handles GET /api/equipment/:id
func (h *Handlers) GetEquipment(c *gin.Context) {
	item, ok := h.store.GetEquipment(c.Param("id"))
	if !ok {
		h.respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// CreateEquipment handles POST /api/equipment
func (h *Handlers) CreateEquipment(c *gin.Context) {
	var req CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}
	if err := utils.ValidateAssetID(req.AssetID); err != nil {
		h.respondBadRequest(c, err.Error())
		return
	}

	item, err := h.store.AddEquipment(c.Request.Context(), h.actor(c), entity.Equipment{
		ID:      req.ID,
		AssetID: req.AssetID,
		Type:    req.Type,
		Model:   utils.SanitizeString(req.Model),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// UpdateEquipment handles PATCH /api/equipment/:id
func (h *Handlers) UpdateEquipment(c *gin.Context) {
	var req UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	patch := entity.EquipmentPatch{
		Type:      req.Type,
		Model:     req.Model,
		UserID:    req.UserID,
		UserName:  req.UserName,
		ClearUser: req.ClearUser,
	}
	if req.Status != nil {
		status := entity.EquipmentStatus(*req.Status)
		patch.Status = &status
	}
	if req.AssignmentStatus != nil {
		assignment := entity.AssignmentStatus(*req.AssignmentStatus)
		patch.AssignmentStatus = &assignment
	}

	item, err := h.store.UpdateEquipment(c.Request.Context(), h.actor(c), c.Param("id"), patch, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

// DeleteEquipment handles DELETE /api/equipment/:id
func (h *Handlers) DeleteEquipment(c *gin.Context) {
	decision, err := h.store.DeleteEquipment(c.Request.Context(), h.actor(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(c, decision)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ConfirmReceipt handles POST /api/equipment/:id/confirm-receipt
func (h *Handlers) ConfirmReceipt(c *gin.Context) {
	h.custodyIntent(c, h.store.ConfirmReceipt)
}

// DisputeDelivery handles POST /api/equipment/:id/dispute
func (h *Handlers) DisputeDelivery(c *gin.Context) {
	h.custodyIntent(c, h.store.DisputeDelivery)
}

// RequestReturn handles POST /api/equipment/:id/return-request
func (h *Handlers) RequestReturn(c *gin.Context) {
	h.custodyIntent(c, h.store.RequestReturn)
}

// InspectReturn handles POST /api/equipment/:id/return-inspect
func (h *Handlers) InspectReturn(c *gin.Context) {
	var req InspectReturnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondBadRequest(c, "invalid request body")
			return
		}
	}

	id := c.Param("id")
	decision, err := h.store.InspectReturn(c.Request.Context(), h.actor(c), id, req.ToRepair)
	h.respondCustody(c, id, decision, err)
}

// StartRepair handles POST /api/equipment/:id/repair/start
func (h *Handlers) StartRepair(c *gin.Context) {
	h.custodyIntent(c, h.store.StartRepair)
}

// EndRepair handles POST /api/equipment/:id/repair/end
func (h *Handlers) EndRepair(c *gin.Context) {
	h.custodyIntent(c, h.store.EndRepair)
}

// ListApprovals handles GET /api/approvals
func (h *Handlers) ListApprovals(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.store.ListApprovals()})
}

// GetApproval handles GET /api/approvals/:id
func (h *Handlers) GetApproval(c *gin.Context) {
	approval, ok := h.store.GetApproval(c.Param("id"))
	if !ok {
		h.respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: approval})
}

// CreateApproval handles POST /api/approvals
func (h *Handlers) CreateApproval(c *gin.Context) {
	var req CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	actor := h.actor(c)
	beneficiary := *actor
	if req.BeneficiaryID != "" && req.BeneficiaryID != actor.ID {
		found, ok := h.store.GetUser(req.BeneficiaryID)
		if !ok {
			h.respondBadRequest(c, "unknown beneficiary")
			return
		}
		beneficiary = found
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = entity.UrgencyNormal
	}

	approval, err := h.store.AddApproval(c.Request.Context(), actor, entity.Approval{
		RequesterID:         actor.ID,
		RequesterName:       actor.Name,
		RequesterRole:       actor.Role,
		BeneficiaryID:       beneficiary.ID,
		BeneficiaryName:     beneficiary.Name,
		EquipmentCategory:   req.EquipmentCategory,
		Reason:              utils.SanitizeString(req.Reason),
		Urgency:             urgency,
		AssignedEquipmentID: req.AssignedEquipmentID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: approval})
}

// UpdateApprovalStatus handles POST /api/approvals/:id/status
func (h *Handlers) UpdateApprovalStatus(c *gin.Context) {
	var req UpdateApprovalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	id := c.Param("id")
	decision, err := h.store.UpdateApproval(c.Request.Context(), h.actor(c), id, entity.ApprovalStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(c, decision)
		return
	}

	approval, _ := h.store.GetApproval(id)
	c.JSON(http.StatusOK, Response{Success: true, Data: approval})
}

// ListEvents handles GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.store.Events(h.actor(c))})
}

// GetTimeline handles GET /api/timeline/:targetType/:targetId
func (h *Handlers) GetTimeline(c *gin.Context) {
	targetType := entity.TargetType(strings.ToUpper(c.Param("targetType")))
	switch targetType {
	case entity.TargetUser, entity.TargetEquipment, entity.TargetApproval:
	default:
		h.respondBadRequest(c, "unknown timeline target type")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.store.Timeline(targetType, c.Param("targetId")),
	})
}

// CreateNotice handles POST /api/notices. Notices are plain audit entries
// visible to everyone; only privileged roles may post them.
func (h *Handlers) CreateNotice(c *gin.Context) {
	var req CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	actor := h.actor(c)
	if actor == nil || !actor.Role.IsPrivileged() {
		h.respondDenied(c, entity.Deny("only administrators may post system notices"))
		return
	}

	h.store.LogEvent(entity.HistoryEvent{
		Type:        entity.EventSystemNotice,
		TargetType:  entity.TargetSystem,
		Description: utils.SanitizeString(req.Message),
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
	})
	c.JSON(http.StatusCreated, Response{Success: true})
}

// GetSetting handles GET /api/settings/:key
func (h *Handlers) GetSetting(c *gin.Context) {
	value, ok := h.store.GetSetting(c.Param("key"))
	if !ok {
		h.respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: value})
}

// SetSetting handles PUT /api/settings/:key
func (h *Handlers) SetSetting(c *gin.Context) {
	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	actor := h.actor(c)
	if actor == nil || !actor.Role.IsPrivileged() {
		h.respondDenied(c, entity.Deny("only administrators may change settings"))
		return
	}

	h.store.SetSetting(c.Param("key"), req.Value)
	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportInventory handles GET /api/reports/inventory
func (h *Handlers) ExportInventory(c *gin.Context) {
	title, _ := h.store.GetSetting("report.title")
	f, err := h.reports.Generate(title, h.store.ListEquipment(), h.store.Events(h.actor(c)), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// custodyIntent runs one custody mutation and writes the shared response
func (h *Handlers) custodyIntent(c *gin.Context, fn func(ctx context.Context, actor *entity.User, id string) (entity.Decision, error)) {
	id := c.Param("id")
	decision, err := fn(c.Request.Context(), h.actor(c), id)
	h.respondCustody(c, id, decision, err)
}

func (h *Handlers) respondCustody(c *gin.Context, id string, decision entity.Decision, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(c, decision)
		return
	}
	item, _ := h.store.GetEquipment(id)
	c.JSON(http.StatusOK, Response{Success: true, Data: item})
}

func (h *Handlers) respondDenied(c *gin.Context, decision entity.Decision) {
	c.JSON(http.StatusForbidden, Response{Success: false, Error: decision.Reason})
}

func (h *Handlers) respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{Success: false, Error: "not found"})
}

func (h *Handlers) respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, store.ErrInvalidState), errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
