package config

import (
	"Receiptify-Backend/internal/api/handlers"
	"Receiptify-Backend/internal/api/routes"
	"Receiptify-Backend/internal/middleware"
	"Receiptify-Backend/internal/utils"
	"Receiptify-Backend/internal/utils/storage"
	"Receiptify-Backend/pkg/credit"
	"Receiptify-Backend/pkg/jwt"
	"Receiptify-Backend/pkg/midtrans"
	"Receiptify-Backend/pkg/processing"
	"Receiptify-Backend/pkg/receipt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         20 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	// The extractor upstream rate-limits us, so every extraction call goes
	// through one shared limiter paced at roughly one call per second.
	extractor := processing.NewGeminiExtractor(
		utils.GetConfig("GEMINI_API_KEY"),
		utils.GetConfig("GEMINI_MODEL"),
	)
	extractorLimiter := rate.NewLimiter(rate.Every(time.Second), 1)

	// Repository
	receiptRepository := receipt.NewReceiptRepository(db)
	creditRepository := credit.NewCreditRepository(db)
	midtransRepository := midtrans.NewMidtransRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	receiptService := receipt.NewReceiptService(receiptRepository, s3)
	creditService := credit.NewCreditService(creditRepository)
	midtransService := midtrans.NewMidtransService(
		midtransRepository,
		creditRepository,
		creditService,
	)
	processingService := processing.NewProcessingService(
		receiptRepository,
		creditService,
		s3,
		extractor,
		extractorLimiter,
	)

	// Handler
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	processingHandler := handlers.NewProcessingHandler(processingService, validator)
	creditHandler := handlers.NewCreditHandler(creditService, validator)
	midtransHandler := handlers.NewMidtransHandler(midtransService, validator)

	// routes
	routesConfig := routes.Config{
		App:               app,
		ReceiptHandler:    receiptHandler,
		ProcessingHandler: processingHandler,
		CreditHandler:     creditHandler,
		MidtransHandler:   midtransHandler,
		Middleware:        middlewares,
		JWTService:        jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
