package waitlist

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"evently-booking/internal/shared/apperrors"
	"evently-booking/internal/shared/middleware"
	"evently-booking/internal/shared/utils/response"
)

// Controller exposes waitlist operations over HTTP.
type Controller interface {
	CheckEligibility(c *gin.Context)
	JoinWaitlist(c *gin.Context)
	ListMyEntries(c *gin.Context)
	GetEntry(c *gin.Context)
	CancelEntry(c *gin.Context)
	GetPosition(c *gin.Context)
	GetEntryAudit(c *gin.Context)

	ListEventEntries(c *gin.Context)
	TriggerNotify(c *gin.Context)
}

type controller struct {
	service Service
}

// NewController creates a waitlist controller.
func NewController(service Service) Controller {
	return &controller{service: service}
}

func parseEntryID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validationf("invalid waitlist entry id %q", c.Param("id"))
	}
	return id, nil
}

func parseEventID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validationf("invalid event id %q", c.Param("eventId"))
	}
	return id, nil
}

func (ctrl *controller) CheckEligibility(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	eventID, err := parseEventID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		response.FromError(c, apperrors.Validationf("quantity must be an integer"))
		return
	}

	result, err := ctrl.service.CheckEligibility(c.Request.Context(), userID, eventID, quantity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) JoinWaitlist(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperrors.Validationf("invalid join payload: %v", err))
		return
	}

	result, err := ctrl.service.Join(c.Request.Context(), userID, middleware.GetUserEmail(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, result)
}

func (ctrl *controller) ListMyEntries(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}

	result, err := ctrl.service.ListUserEntries(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) GetEntry(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	entryID, err := parseEntryID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.GetByID(c.Request.Context(), entryID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) CancelEntry(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	entryID, err := parseEntryID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.Cancel(c.Request.Context(), entryID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) GetPosition(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	entryID, err := parseEntryID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.GetPosition(c.Request.Context(), entryID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) GetEntryAudit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	entryID, err := parseEntryID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.GetAuditLog(c.Request.Context(), entryID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) ListEventEntries(c *gin.Context) {
	eventID, err := parseEventID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.ListEventEntries(c.Request.Context(), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) TriggerNotify(c *gin.Context) {
	eventID, err := parseEventID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	quantity, err := strconv.Atoi(c.Query("available_quantity"))
	if err != nil || quantity <= 0 {
		response.FromError(c, apperrors.Validationf("available_quantity must be a positive integer"))
		return
	}

	sent, err := ctrl.service.NotifyNext(c.Request.Context(), eventID, quantity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, NotifyResponse{EventID: eventID, NotificationsSent: sent})
}
