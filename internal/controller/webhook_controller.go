package controller

import (
	"line-intake-bot/internal/dto"
	"line-intake-bot/internal/pkg/serverutils"
	"line-intake-bot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router, channelSecret string)
	Handle(ctx *fiber.Ctx) error
}

type webhookController struct {
	intakeService service.IIntakeService
}

func NewWebhookController(intakeService service.IIntakeService) IWebhookController {
	return &webhookController{
		intakeService: intakeService,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router, channelSecret string) {
	r.Post("/webhook", serverutils.LineSignatureMiddleware(channelSecret), c.Handle)
}

// Handle always answers 200 once the signature checked out: LINE
// re-delivers the whole batch on non-2xx, which would replay answers
// that were already accepted.
func (c *webhookController) Handle(ctx *fiber.Ctx) error {
	var req dto.WebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewApiError(fiber.StatusBadRequest, "Invalid webhook body")
	}

	if err := c.intakeService.HandleWebhook(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusOK)
}
