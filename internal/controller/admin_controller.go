package controller

import (
	"coursegate_backend/internal/service"
	"coursegate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController groups the catalog and purchase write endpoints.
type AdminController struct {
	CatalogService  *service.CatalogService
	PurchaseService *service.PurchaseService
}

func NewAdminController(catalogService *service.CatalogService, purchaseService *service.PurchaseService) *AdminController {
	return &AdminController{
		CatalogService:  catalogService,
		PurchaseService: purchaseService,
	}
}

// CreateCourse godoc
// @Summary Create a course (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateCourseRequest true "course"
// @Success 201 {object} util.Response{data=model.Course}
// @Router /api/admin/courses [post]
func (c *AdminController) CreateCourse(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CatalogService.CreateCourse(req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// CreateModule godoc
// @Summary Add a module to a course's drip sequence (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateModuleRequest true "module"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Failure 400 {object} util.Response "drip offset regresses"
// @Failure 409 {object} util.Response "module number taken"
// @Router /api/admin/modules [post]
func (c *AdminController) CreateModule(ctx *gin.Context) {
	var req service.CreateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.CatalogService.CreateModule(req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// CreateLesson godoc
// @Summary Add a lesson to a module (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateLessonRequest true "lesson"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons [post]
func (c *AdminController) CreateLesson(ctx *gin.Context) {
	var req service.CreateLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CatalogService.CreateLesson(req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UploadMaterial godoc
// @Summary Upload a lesson attachment (admin)
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "lesson id"
// @Param title formData string true "material title"
// @Param file formData file true "attachment"
// @Success 201 {object} util.Response{data=model.Material}
// @Router /api/admin/lessons/{id}/materials [post]
func (c *AdminController) UploadMaterial(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("id"))
	if lessonID == 0 {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	title := ctx.PostForm("title")
	if title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	material, err := c.CatalogService.UploadMaterial(ctx.Request.Context(), lessonID, title, file)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, material)
}

// RevokePurchase godoc
// @Summary Revoke a purchase; one-way, conflicts if already revoked (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "purchase id"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "already revoked"
// @Router /api/admin/purchases/{id}/revoke [post]
func (c *AdminController) RevokePurchase(ctx *gin.Context) {
	purchaseID := util.MustParseUint(ctx.Param("id"))
	if purchaseID == 0 {
		util.BadRequest(ctx, "invalid purchase id")
		return
	}

	if err := c.PurchaseService.Revoke(purchaseID); err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"revoked": purchaseID})
}

// ListUserPurchases godoc
// @Summary Active purchases for a user (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "user id"
// @Success 200 {object} util.Response
// @Router /api/admin/users/{id}/purchases [get]
func (c *AdminController) ListUserPurchases(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("id"))
	if userID == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	purchases, err := c.PurchaseService.ListForUser(userID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, purchases)
}
