package controller

import (
	"strconv"

	"line-intake-bot/internal/dto"
	"line-intake-bot/internal/pkg/serverutils"
	"line-intake-bot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	ExpireSession(ctx *fiber.Ctx) error
	GetSubmissions(ctx *fiber.Ctx) error
	ResubmitSubmission(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Post("login", c.Login)

	protected := h.Group("", serverutils.JwtMiddleware)
	protected.Get("sessions", c.GetSessions)
	protected.Delete("sessions/:userId", c.ExpireSession)
	protected.Get("submissions", c.GetSubmissions)
	protected.Post("submissions/:id/resubmit", c.ResubmitSubmission)
}

func (c *adminController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Admin login successful", res))
}

func (c *adminController) GetSessions(ctx *fiber.Ctx) error {
	sessions, err := c.service.ListSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Active sessions", sessions))
}

func (c *adminController) ExpireSession(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")
	if userID == "" {
		return serverutils.NewApiError(fiber.StatusBadRequest, "Missing user id")
	}

	if err := c.service.ExpireSession(ctx.Context(), userID); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session expired", nil))
}

func (c *adminController) GetSubmissions(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))
	status := ctx.Query("status", "")

	res, err := c.service.ListSubmissions(ctx.Context(), status, page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Submissions", res))
}

func (c *adminController) ResubmitSubmission(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewApiError(fiber.StatusBadRequest, "Invalid submission id")
	}

	res, err := c.service.ResubmitSubmission(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Submission delivered", res))
}
