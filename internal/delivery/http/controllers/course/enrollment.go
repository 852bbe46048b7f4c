package course

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/delivery/http/controllers/middleware"
	"SkillMarket/internal/models"
	"SkillMarket/pkg/logger"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error)
	VerifyAndEnroll(ctx context.Context, userID, courseID uuid.UUID, reference string) (*models.EnrollmentReceipt, error)
}

type EnrollmentHandler struct {
	log     logger.Log
	service EnrollmentService
}

func NewEnrollmentHandler(log logger.Log, s EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:     log,
		service: s,
	}
}

// EnrollCourse grants access to a free course.
func (h *EnrollmentHandler) EnrollCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
		return
	}

	id, ok := c.Get(middleware.ClientIDCtx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	userID := id.(uuid.UUID)

	enrollment, err := h.service.Enroll(c.Request.Context(), courseID, userID)
	if err != nil {
		switch {
		case errors.Is(err, app_errors.ErrCourseNotFound), errors.Is(err, app_errors.ErrCourseNotPublished):
			c.JSON(http.StatusNotFound, gin.H{"error": app_errors.ErrCourseNotFound.Error()})
		case errors.Is(err, app_errors.ErrAlreadyEnrolled):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, app_errors.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			h.log.ErrorErr("enroll failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not enroll"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollment_id": enrollment.ID, "status": enrollment.Status})
}

type verifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// VerifyPayment confirms a client-supplied payment reference with the
// provider and commits the enrollment. The response is identical whether
// this call created the enrollment or found it already committed.
func (h *EnrollmentHandler) VerifyPayment(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
		return
	}

	var input verifyPaymentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, ok := c.Get(middleware.ClientIDCtx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	userID := id.(uuid.UUID)

	receipt, err := h.service.VerifyAndEnroll(c.Request.Context(), userID, courseID, input.Reference)
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":       receipt.PaymentID,
		"enrollment_id":    receipt.EnrollmentID,
		"already_enrolled": receipt.AlreadyEnrolled,
	})
}

func (h *EnrollmentHandler) writeVerifyError(c *gin.Context, err error) {
	var rateErr *app_errors.RateLimitError
	switch {
	case errors.Is(err, app_errors.ErrEmptyReference), errors.Is(err, app_errors.ErrFreeCourse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rateErr):
		c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, app_errors.ErrCourseNotFound), errors.Is(err, app_errors.ErrCourseNotPublished):
		c.JSON(http.StatusNotFound, gin.H{"error": app_errors.ErrCourseNotFound.Error()})
	case errors.Is(err, app_errors.ErrProviderTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, app_errors.ErrProviderUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": app_errors.ErrProviderUnreachable.Error()})
	case errors.Is(err, app_errors.ErrPaymentRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.log.ErrorErr("payment verification failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment verification failed"})
	}
}
