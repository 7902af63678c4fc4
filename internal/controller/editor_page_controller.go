package controller

import (
	"embed"
	"html/template"
	"net/http"

	"editorial_composer/internal/editor"
	"editorial_composer/internal/service"
	"editorial_composer/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the editor page. Register it with gin.Engine.SetHTMLTemplate.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// EditorPageController serves the browser editor. Every mutation answers with
// the re-rendered editor fragment; htmx swaps it into the page.
type EditorPageController struct {
	service *service.EditorService
}

func NewEditorPageController(s *service.EditorService) *EditorPageController {
	return &EditorPageController{service: s}
}

type editorView struct {
	Draft *service.Draft
	Error string
}

// GET /
func (c *EditorPageController) NewDraft(ctx *gin.Context) {
	draft, err := c.service.CreateDraft(ctx.Request.Context())
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/drafts/"+draft.ID)
}

// GET /drafts/:id
func (c *EditorPageController) Show(ctx *gin.Context) {
	draft, err := c.service.GetDraft(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, draft, err)
}

// POST /drafts/:id/actions
func (c *EditorPageController) Apply(ctx *gin.Context) {
	var action editor.Action
	if err := ctx.ShouldBind(&action); err != nil {
		c.rerender(ctx, err.Error())
		return
	}
	draft, err := c.service.Apply(ctx.Request.Context(), ctx.Param("id"), action)
	c.respond(ctx, draft, err)
}

// POST /drafts/:id/submit
func (c *EditorPageController) Submit(ctx *gin.Context) {
	draft, err := c.service.Submit(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, draft, err)
}

// POST /drafts/:id/daily/date
func (c *EditorPageController) SetDailyDate(ctx *gin.Context) {
	draft, err := c.service.SetDailyDate(ctx.Request.Context(), ctx.Param("id"), ctx.PostForm("date"))
	c.respond(ctx, draft, err)
}

// POST /drafts/:id/daily
func (c *EditorPageController) ConfirmDaily(ctx *gin.Context) {
	draft, err := c.service.ConfirmDaily(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, draft, err)
}

// POST /drafts/:id/daily/cancel
func (c *EditorPageController) CancelDaily(ctx *gin.Context) {
	draft, err := c.service.CancelDaily(ctx.Request.Context(), ctx.Param("id"))
	c.respond(ctx, draft, err)
}

func (c *EditorPageController) respond(ctx *gin.Context, draft *service.Draft, err error) {
	if err != nil {
		if statusFor(err) == http.StatusNotFound || statusFor(err) == http.StatusInternalServerError {
			c.fail(ctx, err)
			return
		}
		// Rejected operations keep the page usable and explain why.
		c.rerender(ctx, err.Error())
		return
	}
	c.render(ctx, editorView{Draft: draft})
}

func (c *EditorPageController) rerender(ctx *gin.Context, message string) {
	draft, err := c.service.GetDraft(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.render(ctx, editorView{Draft: draft, Error: message})
}

// render sends only the fragment to htmx requests and the full page otherwise.
func (c *EditorPageController) render(ctx *gin.Context, view editorView) {
	if ctx.GetHeader("HX-Request") == "true" {
		ctx.HTML(http.StatusOK, "editor", view)
		return
	}
	ctx.HTML(http.StatusOK, "layout", view)
}

func (c *EditorPageController) fail(ctx *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusNotFound {
		ctx.String(code, "Draft not found")
		return
	}
	logger.Log.Error("editor page failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	ctx.String(http.StatusInternalServerError, "Internal server error")
}
