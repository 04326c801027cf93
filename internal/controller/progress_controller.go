package controller

import (
	"coursegate_backend/internal/service"
	"coursegate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	DripService     *service.DripService
}

func NewProgressController(progressService *service.ProgressService, dripService *service.DripService) *ProgressController {
	return &ProgressController{
		ProgressService: progressService,
		DripService:     dripService,
	}
}

type WatchRequest struct {
	LessonID   uint `json:"lessonId" binding:"required"`
	Percentage *int `json:"percentage" binding:"required"`
}

// RecordWatch godoc
// @Summary Report watch progress for a lesson
// @Description Stored percentage only rises; crossing the completion
// @Description threshold flips the lesson completed exactly once and may
// @Description complete the module.
// @Tags progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body WatchRequest true "watch report"
// @Success 200 {object} util.Response{data=service.WatchResult}
// @Failure 400 {object} util.Response "percentage out of range"
// @Router /api/progress/watch [post]
func (c *ProgressController) RecordWatch(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req WatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.RecordWatch(claims.UserID, req.LessonID, *req.Percentage)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Stats godoc
// @Summary Caller's lifetime completed-lesson counter
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.UserStats}
// @Router /api/progress/stats [get]
func (c *ProgressController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.ProgressService.Stats(claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Timeline godoc
// @Summary Caller's drip timeline for a course
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param slug path string true "course slug"
// @Success 200 {object} util.Response
// @Router /api/courses/{slug}/timeline [get]
func (c *ProgressController) Timeline(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	timeline, err := c.DripService.UserTimeline(claims.UserID, ctx.Param("slug"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, timeline)
}
