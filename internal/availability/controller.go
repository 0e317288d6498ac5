package availability

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"evently-booking/internal/shared/apperrors"
	"evently-booking/internal/shared/utils/response"
)

type Controller interface {
	GetAvailability(c *gin.Context)
	CheckAvailability(c *gin.Context)
	InitializeCapacity(c *gin.Context)
	UpdateTotalCapacity(c *gin.Context)
	GetStats(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) GetAvailability(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	resp, err := ctrl.service.GetAvailability(c.Request.Context(), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, resp)
}

func (ctrl *controller) CheckAvailability(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		response.FromError(c, apperrors.Validationf("quantity must be an integer"))
		return
	}

	resp, err := ctrl.service.CheckAvailability(c.Request.Context(), eventID, quantity)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, resp)
}

func (ctrl *controller) InitializeCapacity(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	totalCapacity, err := strconv.Atoi(c.Query("total_capacity"))
	if err != nil {
		response.FromError(c, apperrors.Validationf("total_capacity must be an integer"))
		return
	}

	resp, err := ctrl.service.InitializeCapacity(c.Request.Context(), eventID, totalCapacity)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, resp)
}

func (ctrl *controller) UpdateTotalCapacity(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	newTotal, err := strconv.Atoi(c.Query("new_total_capacity"))
	if err != nil {
		response.FromError(c, apperrors.Validationf("new_total_capacity must be an integer"))
		return
	}

	resp, err := ctrl.service.UpdateTotalCapacity(c.Request.Context(), eventID, newTotal)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, resp)
}

func (ctrl *controller) GetStats(c *gin.Context) {
	resp, err := ctrl.service.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, resp)
}

func parseEventID(c *gin.Context) (int64, bool) {
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil || eventID <= 0 {
		response.FromError(c, apperrors.Validationf("event id must be a positive integer"))
		return 0, false
	}
	return eventID, true
}
