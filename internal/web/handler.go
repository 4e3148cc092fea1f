package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"yashubustudio/healthpredictor/predictor"
)

//go:embed templates/*.html
var templateFS embed.FS

// Predictor is the part of predictor.Service the page needs.
type Predictor interface {
	Predict(ctx context.Context, raw string) (predictor.Result, error)
}

// Handler serves the prediction form.
type Handler struct {
	predictor Predictor
	theme     string
	logger    *zap.Logger
	metrics   http.Handler
	templates map[string]*template.Template
}

// Options configures a Handler.
type Options struct {
	Theme   string
	Logger  *zap.Logger
	Metrics http.Handler
}

// NewHandler parses the embedded page templates.
func NewHandler(p Predictor, opts Options) (*Handler, error) {
	if p == nil {
		return nil, errors.New("predictor is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Theme == "" {
		opts.Theme = predictor.ThemeStyled
	}
	templates, err := parsePageTemplates([]string{"index"})
	if err != nil {
		return nil, err
	}
	return &Handler{
		predictor: p,
		theme:     opts.Theme,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		templates: templates,
	}, nil
}

func parsePageTemplates(pages []string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		parsed, err := template.New("base").ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", page, err)
		}
		templates[page] = parsed
	}
	return templates, nil
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ShowForm renders the empty form.
func (h *Handler) ShowForm(c *fiber.Ctx) error {
	return h.render(c, "index", fiber.Map{"Description": ""})
}

// Predict handles a form submission.
func (h *Handler) Predict(c *fiber.Ctx) error {
	description := c.FormValue("description")
	data := fiber.Map{"Description": description}

	res, err := h.predictor.Predict(c.UserContext(), description)
	if err != nil {
		h.logger.Error("prediction failed", zap.Error(err))
		data["Error"] = err.Error()
		c.Status(fiber.StatusInternalServerError)
		return h.render(c, "index", data)
	}
	if !res.Predicted() {
		data["Warning"] = res.Warning
		return h.render(c, "index", data)
	}
	data["Label"] = res.Label
	if res.Language != "" && res.Language != "en" {
		data["Language"] = res.Language
	}
	return h.render(c, "index", data)
}

func (h *Handler) render(c *fiber.Ctx, name string, data fiber.Map) error {
	tmpl, ok := h.templates[name]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("template not found")
	}
	data["Theme"] = h.theme
	data["Styled"] = strings.EqualFold(h.theme, predictor.ThemeStyled)
	var output bytes.Buffer
	if err := tmpl.ExecuteTemplate(&output, "base", data); err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render template")
	}
	c.Type("html", "utf-8")
	return c.Send(output.Bytes())
}
