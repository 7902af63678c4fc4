package controller

import (
	"editorial_composer/internal/editor"
	"editorial_composer/internal/service"
	"editorial_composer/internal/util"

	"github.com/gin-gonic/gin"
)

type DraftController struct {
	service *service.EditorService
}

func NewDraftController(s *service.EditorService) *DraftController {
	return &DraftController{service: s}
}

type SetDailyDateRequest struct {
	Date string `json:"date" form:"date"`
}

// CreateDraft starts an empty draft dated today.
// POST /api/drafts
func (c *DraftController) CreateDraft(ctx *gin.Context) {
	draft, err := c.service.CreateDraft(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, draft)
}

// GET /api/drafts/:id
func (c *DraftController) GetDraft(ctx *gin.Context) {
	draft, err := c.service.GetDraft(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// DELETE /api/drafts/:id
func (c *DraftController) DeleteDraft(ctx *gin.Context) {
	if err := c.service.DeleteDraft(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Apply runs one editor action, e.g.
// {"type":"update_option","question":0,"option":1,"value":"Paris"}.
// POST /api/drafts/:id/actions
func (c *DraftController) Apply(ctx *gin.Context) {
	var action editor.Action
	if err := ctx.ShouldBindJSON(&action); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	draft, err := c.service.Apply(ctx.Request.Context(), ctx.Param("id"), action)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// Submit posts the draft to the CMS. A CMS failure still answers 200: the
// outcome is in data.workflow.
// POST /api/drafts/:id/submit
func (c *DraftController) Submit(ctx *gin.Context) {
	draft, err := c.service.Submit(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// PUT /api/drafts/:id/daily
func (c *DraftController) SetDailyDate(ctx *gin.Context) {
	var req SetDailyDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	draft, err := c.service.SetDailyDate(ctx.Request.Context(), ctx.Param("id"), req.Date)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// POST /api/drafts/:id/daily
func (c *DraftController) ConfirmDaily(ctx *gin.Context) {
	draft, err := c.service.ConfirmDaily(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// DELETE /api/drafts/:id/daily
func (c *DraftController) CancelDaily(ctx *gin.Context) {
	draft, err := c.service.CancelDaily(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// GET /api/drafts/:id/submissions
func (c *DraftController) ListDraftSubmissions(ctx *gin.Context) {
	records, err := c.service.DraftHistory(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, records)
}
