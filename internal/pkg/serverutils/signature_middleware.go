package serverutils

import (
	"line-intake-bot/pkg/line"

	"github.com/gofiber/fiber/v2"
)

// LineSignatureMiddleware rejects webhook deliveries whose
// X-Line-Signature does not match the raw body. Rejected deliveries get
// a 401 and never reach the survey engine.
func LineSignatureMiddleware(channelSecret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		signature := ctx.Get("X-Line-Signature")
		if !line.ValidateSignature(channelSecret, ctx.Body(), signature) {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid signature"))
		}
		return ctx.Next()
	}
}
