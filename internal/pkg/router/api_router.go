package router

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/audira/commerce-service/app/controllers"
	"github.com/audira/commerce-service/app/repository"
	"github.com/audira/commerce-service/internal/pkg/clients"
	"github.com/audira/commerce-service/internal/pkg/database"
	"github.com/audira/commerce-service/internal/pkg/env"
	"github.com/audira/commerce-service/internal/pkg/notification"
	"github.com/audira/commerce-service/internal/pkg/payment"
	"github.com/audira/commerce-service/internal/pkg/receipt"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	db := database.GetDB()
	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()

	// The dispatcher captures the provider initialization outcome: a nil
	// provider turns every send into a logged no-op failure.
	var provider notification.Provider
	credentialsFile := env.GetEnv("FIREBASE_CREDENTIALS_FILE", "firebase-service-account.json")
	if fcm, err := notification.NewFCMProvider(context.Background(), credentialsFile); err != nil {
		log.Errorf("Failed to initialize Firebase Admin SDK: %v", err)
		log.Warn("Push notifications will NOT work without proper Firebase configuration")
	} else {
		provider = fcm
	}
	dispatcher := notification.NewDispatcher(provider, repos.FcmToken)
	notifier := notification.NewNotifier(dispatcher, repos.Notification)

	paymentService := payment.NewServiceFromDB(db, notifier, repos.Cart)

	userClient := clients.NewUserClient(env.GetEnv("USER_SERVICE_URL", "http://localhost:9001/api/users"))
	catalogClient := clients.NewCatalogClient(env.GetEnv("CATALOG_SERVICE_URL", "http://localhost:9002/api"))
	receiptService := receipt.NewService(paymentService, repos.Order, userClient, catalogClient)

	controllers.InitializePaymentController(paymentService)
	controllers.InitializeNotificationController(dispatcher)
	controllers.InitializeReceiptController(receiptService)

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	v1.Post("/payments/process", controllers.HandleProcessPayment)
	v1.Post("/payments/:id/retry", controllers.HandleRetryPayment)
	v1.Post("/payments/:id/refund", controllers.HandleRefundPayment)
	v1.Get("/payments/transaction/:txn", controllers.HandleGetPaymentByTransaction)
	v1.Get("/payments/user/:userId", controllers.HandleGetPaymentsByUser)
	v1.Get("/payments/order/:orderId", controllers.HandleGetPaymentsByOrder)
	v1.Get("/payments/:id", controllers.HandleGetPayment)

	v1.Get("/receipts/:txn", controllers.HandleGetReceipt)

	v1.Get("/orders/number/:orderNumber", controllers.HandleGetOrderByNumber)
	v1.Get("/orders/user/:userId", controllers.HandleGetOrdersByUser)
	v1.Get("/orders/:id", controllers.HandleGetOrder)

	v1.Get("/library/user/:userId", controllers.HandleGetLibrary)
	v1.Get("/cart/user/:userId", controllers.HandleGetCart)

	v1.Post("/notifications/tokens", controllers.HandleRegisterToken)
	v1.Delete("/notifications/tokens/:token", controllers.HandleUnregisterToken)
	v1.Get("/notifications/user/:userId", controllers.HandleListNotifications)
	v1.Patch("/notifications/:id/read", controllers.HandleMarkNotificationRead)
	v1.Post("/notifications/topic", controllers.HandleSendTopicNotification)
}
