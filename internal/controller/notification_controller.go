package controller

import (
	"errors"
	"net/http"
	"strconv"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/service"
	"coursegate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

type SendNotificationRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=single all course"`
	TargetID string `json:"targetId"`
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body"`
}

// Send godoc
// @Summary Send a notification to a resolved recipient set (admin)
// @Description kind=single targets one user id, kind=course targets everyone
// @Description entitled to the course slug, kind=all targets full-access
// @Description users. A partial fan-out returns 207 with the missing user ids
// @Description so the caller retries only the gaps.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendNotificationRequest true "notification"
// @Success 200 {object} util.Response{data=service.SendResult}
// @Failure 207 {object} util.Response "partial fan-out"
// @Router /api/admin/notifications [post]
func (c *NotificationController) Send(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SendNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.NotificationService.Send(claims.UserID, model.RecipientKind(req.Kind), req.TargetID, req.Title, req.Body)
	if err != nil {
		var partial *util.PartialFanoutError
		if errors.As(err, &partial) {
			ctx.JSON(http.StatusMultiStatus, util.Response{
				Code:    http.StatusMultiStatus,
				Message: "partial fan-out",
				Data: gin.H{
					"result":  result,
					"missing": partial.Missing,
				},
			})
			return
		}
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

type RetryFanoutRequest struct {
	UserIDs []uint `json:"userIds" binding:"required,min=1"`
}

// RetryFanout godoc
// @Summary Re-run delivery for specific recipients of a notification (admin)
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "notification id"
// @Param body body RetryFanoutRequest true "user ids to retry"
// @Success 200 {object} util.Response{data=service.SendResult}
// @Router /api/admin/notifications/{id}/retry [post]
func (c *NotificationController) RetryFanout(ctx *gin.Context) {
	var req RetryFanoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.NotificationService.RetryFanout(ctx.Param("id"), req.UserIDs)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Inbox godoc
// @Summary Caller's notification inbox, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "max rows, default 50"
// @Success 200 {object} util.Response
// @Router /api/notifications [get]
func (c *NotificationController) Inbox(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	inbox, err := c.NotificationService.Inbox(claims.UserID, limit)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, inbox)
}

// UnreadCount godoc
// @Summary Caller's unread notification count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/notifications/unread [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	count, err := c.NotificationService.UnreadCount(claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"unread": count})
}

// MarkRead godoc
// @Summary Mark one notification read; the first read timestamp sticks
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "notification id"
// @Success 200 {object} util.Response
// @Router /api/notifications/{id}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	flipped, err := c.NotificationService.MarkRead(claims.UserID, ctx.Param("id"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": flipped})
}
