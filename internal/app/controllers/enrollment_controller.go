package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oguzk/tutorhub/internal/app/models/dto"
	"github.com/oguzk/tutorhub/internal/app/services"
	"github.com/oguzk/tutorhub/internal/middleware"
)

// EnrollmentController handles enrollment request operations
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
	logger            zerolog.Logger
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService, logger zerolog.Logger) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		logger:            logger,
	}
}

// RequestEnrollment files a pending enrollment request for the caller
func (c *EnrollmentController) RequestEnrollment(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.RequestEnrollment(ctx.Request.Context(), courseID, userID)
	if err != nil {
		c.logger.Warn().Err(err).Int64("courseID", courseID).Int64("userID", userID).Msg("Enrollment request failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: enrollment})
}

// ListCourseEnrollments returns the enrollment requests for a course
func (c *EnrollmentController) ListCourseEnrollments(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	enrollments, err := c.enrollmentService.ListCourseEnrollments(ctx.Request.Context(), courseID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: enrollments})
}

// ListMyEnrollments returns the caller's enrollment requests
func (c *EnrollmentController) ListMyEnrollments(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	enrollments, err := c.enrollmentService.ListUserEnrollments(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: enrollments})
}

// ApproveEnrollment approves a pending enrollment request
func (c *EnrollmentController) ApproveEnrollment(ctx *gin.Context) {
	c.decide(ctx, true)
}

// RejectEnrollment rejects a pending enrollment request
func (c *EnrollmentController) RejectEnrollment(ctx *gin.Context) {
	c.decide(ctx, false)
}

func (c *EnrollmentController) decide(ctx *gin.Context, approve bool) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	enrollmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.Decide(ctx.Request.Context(), enrollmentID, userID, approve)
	if err != nil {
		c.logger.Warn().Err(err).Int64("enrollmentID", enrollmentID).Bool("approve", approve).Msg("Enrollment decision failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: enrollment})
}
