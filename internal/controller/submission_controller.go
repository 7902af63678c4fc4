package controller

import (
	"editorial_composer/internal/model"
	"editorial_composer/internal/service"
	"editorial_composer/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	service *service.EditorService
}

func NewSubmissionController(s *service.EditorService) *SubmissionController {
	return &SubmissionController{service: s}
}

// ListSubmissions pages through settled CMS calls, newest first.
// GET /api/submissions?kind=&page=&pageSize=
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	page, pageSize := util.ParsePage(ctx.Query("page"), ctx.Query("pageSize"))
	kind := model.SubmissionKind(ctx.Query("kind"))
	switch kind {
	case "", model.SubmissionEditorial, model.SubmissionDaily:
	default:
		util.BadRequest(ctx, "kind must be editorial or daily")
		return
	}

	records, total, err := c.service.History(ctx.Request.Context(), kind, page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  records,
		Total: total,
		Page:  page,
		Limit: pageSize,
	})
}
