package bookings

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"evently-booking/internal/shared/apperrors"
	"evently-booking/internal/shared/middleware"
	"evently-booking/internal/shared/utils/response"
)

// Controller exposes booking operations over HTTP.
type Controller interface {
	CreateBooking(c *gin.Context)
	ListMyBookings(c *gin.Context)
	GetBooking(c *gin.Context)
	GetBookingByReference(c *gin.Context)
	ConfirmBooking(c *gin.Context)
	CancelBooking(c *gin.Context)
	GetBookingAudit(c *gin.Context)

	ListAllBookings(c *gin.Context)
	UpdateBookingStatus(c *gin.Context)
	DeleteBooking(c *gin.Context)
	GetBookingStats(c *gin.Context)
	TriggerExpiry(c *gin.Context)
}

type controller struct {
	service Service
}

// NewController creates a booking controller.
func NewController(service Service) Controller {
	return &controller{service: service}
}

func parseBookingID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validationf("invalid booking id %q", c.Param("id"))
	}
	return id, nil
}

func (ctrl *controller) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperrors.Validationf("invalid booking payload: %v", err))
		return
	}

	origin := RequestOrigin{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	result, err := ctrl.service.Create(c.Request.Context(), userID, &req, origin)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, result)
}

func (ctrl *controller) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, apperrors.Validationf("invalid list query: %v", err))
		return
	}

	result, err := ctrl.service.ListUserBookings(c.Request.Context(), userID, q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	bookingID, err := parseBookingID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.GetByID(c.Request.Context(), bookingID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) GetBookingByReference(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	reference := c.Param("reference")
	if reference == "" {
		response.FromError(c, apperrors.Validationf("booking reference is required"))
		return
	}

	result, err := ctrl.service.GetByReference(c.Request.Context(), reference, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) ConfirmBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	bookingID, err := parseBookingID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.Confirm(c.Request.Context(), bookingID, userID, middleware.GetUserEmail(c), middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) CancelBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	bookingID, err := parseBookingID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// The body is optional; an empty cancel carries no reason.
	var req CancelBookingRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.FromError(c, apperrors.Validationf("invalid cancel payload: %v", err))
			return
		}
	}

	result, err := ctrl.service.Cancel(c.Request.Context(), bookingID, userID, middleware.GetUserEmail(c), middleware.IsAdmin(c), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) GetBookingAudit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	bookingID, err := parseBookingID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := ctrl.service.GetAuditLog(c.Request.Context(), bookingID, userID, middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) ListAllBookings(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, apperrors.Validationf("invalid list query: %v", err))
		return
	}

	result, err := ctrl.service.ListAllBookings(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) UpdateBookingStatus(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	bookingID, err := parseBookingID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperrors.Validationf("invalid status payload: %v", err))
		return
	}

	result, err := ctrl.service.UpdateStatus(c.Request.Context(), bookingID, adminID, req.Status, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) DeleteBooking(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, apperrors.ErrUnauthorized)
		return
	}
	bookingID, err := parseBookingID(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := ctrl.service.Delete(c.Request.Context(), bookingID, adminID); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true, "booking_id": bookingID})
}

func (ctrl *controller) GetBookingStats(c *gin.Context) {
	periodDays, err := strconv.Atoi(c.DefaultQuery("period_days", "30"))
	if err != nil || periodDays <= 0 {
		response.FromError(c, apperrors.Validationf("period_days must be a positive integer"))
		return
	}

	result, err := ctrl.service.GetStats(c.Request.Context(), periodDays)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, result)
}

func (ctrl *controller) TriggerExpiry(c *gin.Context) {
	expired, err := ctrl.service.ExpirePending(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, ExpiryResponse{ExpiredCount: expired})
}
