package controller

import (
	"ai-storybook-be/internal/dto"
	"ai-storybook-be/internal/pkg/serverutils"
	"ai-storybook-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IStorybookController interface {
	RegisterRoutes(r fiber.Router)
	Compile(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Regenerate(ctx *fiber.Ctx) error
}

type storybookController struct {
	generationService service.IGenerationService
}

func NewStorybookController(generationService service.IGenerationService) IStorybookController {
	return &storybookController{
		generationService: generationService,
	}
}

func (c *storybookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/storybook/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Post("compile/:sessionId", c.Compile)
	// Force-regenerate clobbers stage state; admin only.
	h.Post(":id/regenerate", serverutils.AdminMiddleware, c.Regenerate)
}

func (c *storybookController) Compile(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionIdParam := ctx.Params("sessionId")
	sessionId, _ := uuid.Parse(sessionIdParam)

	var req dto.CompileStorybookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = sessionId
	if email, ok := ctx.Locals("email").(string); ok {
		req.NotifyEmail = email
	}

	res, err := c.generationService.Compile(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start compilation", res))
}

func (c *storybookController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.generationService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show storybook", res))
}

func (c *storybookController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.generationService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list storybooks", res))
}

func (c *storybookController) Regenerate(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.RegenerateStageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.ArtifactId = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.generationService.Regenerate(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset stage", res))
}
