package routes

import (
	"Receiptify-Backend/internal/api/handlers"
	"Receiptify-Backend/internal/middleware"
	"Receiptify-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App               *fiber.App
	ReceiptHandler    handlers.ReceiptHandler
	ProcessingHandler handlers.ProcessingHandler
	CreditHandler     handlers.CreditHandler
	MidtransHandler   handlers.MidtransHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Receipts()
	c.Credits()
	c.GuestRoute()
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.AuthMiddleware(c.JWTService))

	receipts.Post("", c.ReceiptHandler.UploadReceipt)
	receipts.Get("", c.ReceiptHandler.GetReceipts)
	receipts.Get("/:id", c.ReceiptHandler.GetReceiptDetails)

	// Processing pipeline
	receipts.Post("/bulk-process", c.ProcessingHandler.BulkProcess)
	receipts.Post("/:id/process", c.ProcessingHandler.ProcessReceipt)
	receipts.Post("/:id/retry", c.ProcessingHandler.RetryReceipt)
	receipts.Post("/:id/reset", c.ProcessingHandler.ResetReceipt)
}

func (c *Config) Credits() {
	credits := c.App.Group("/api/v1/credits", c.Middleware.AuthMiddleware(c.JWTService))

	credits.Get("", c.CreditHandler.GetUserCredits)
	credits.Get("/history", c.CreditHandler.GetCreditTransactionHistory)
	credits.Get("/packages", c.CreditHandler.GetCreditPackages)
	credits.Post("/purchase", c.MidtransHandler.BuyCredits)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Post("/webhook/midtrans", c.MidtransHandler.MidtransWebhookHandler)
}
