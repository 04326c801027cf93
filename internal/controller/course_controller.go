package controller

import (
	"coursegate_backend/internal/service"
	"coursegate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService   *service.CourseService
	CatalogService  *service.CatalogService
	ProgressService *service.ProgressService
}

func NewCourseController(
	courseService *service.CourseService,
	catalogService *service.CatalogService,
	progressService *service.ProgressService,
) *CourseController {
	return &CourseController{
		CourseService:   courseService,
		CatalogService:  catalogService,
		ProgressService: progressService,
	}
}

// List godoc
// @Summary Published courses with the caller's entitlement flag
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "entitlement store unavailable"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	listings, err := c.CourseService.ListCourses(claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, listings)
}

// Detail godoc
// @Summary Gated course page: modules with drip state, lessons for released modules
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param slug path string true "course slug"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "not entitled"
// @Failure 503 {object} util.Response "entitlement store unavailable"
// @Router /api/courses/{slug} [get]
func (c *CourseController) Detail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.CourseService.GetCourseForUser(claims.UserID, ctx.Param("slug"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Progress godoc
// @Summary Course-level completion aggregate for the caller
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param slug path string true "course slug"
// @Success 200 {object} util.Response{data=service.CourseProgress}
// @Router /api/courses/{slug}/progress [get]
func (c *CourseController) Progress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.CourseProgressFor(claims.UserID, ctx.Param("slug"))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// Materials godoc
// @Summary Attachments for a lesson
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "lesson id"
// @Success 200 {object} util.Response
// @Router /api/lessons/{id}/materials [get]
func (c *CourseController) Materials(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	materials, err := c.CatalogService.ListMaterials(lessonID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, materials)
}
