package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/okabanov/matcha/backend/internal/config"
	authsvc "github.com/okabanov/matcha/backend/internal/services/auth"
	candidatesvc "github.com/okabanov/matcha/backend/internal/services/candidates"
	messagesvc "github.com/okabanov/matcha/backend/internal/services/messages"
	profilesvc "github.com/okabanov/matcha/backend/internal/services/profiles"
	reportsvc "github.com/okabanov/matcha/backend/internal/services/reports"
	reviewsvc "github.com/okabanov/matcha/backend/internal/services/reviews"
	settlementsvc "github.com/okabanov/matcha/backend/internal/services/settlement"
	swipesvc "github.com/okabanov/matcha/backend/internal/services/swipes"
	"github.com/okabanov/matcha/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	CandidateService  *candidatesvc.Service
	SwipeService      *swipesvc.Service
	SettlementService *settlementsvc.Service
	SettlementSigner  *settlementsvc.Signer
	ReviewService     *reviewsvc.Service
	MessageService    *messagesvc.Service
	ProfileService    *profilesvc.Service
	ReportService     *reportsvc.Service
	TokenManager      *authsvc.JWTManager
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	candidateHandler := handlers.NewCandidateHandler(deps.CandidateService)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	settlementHandler := handlers.NewSettlementHandler(deps.SettlementService, deps.SettlementSigner)
	reviewHandler := handlers.NewReviewHandler(deps.ReviewService)
	messageHandler := handlers.NewMessageHandler(deps.MessageService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	reportHandler := handlers.NewReportHandler(deps.ReportService)

	authMW := AuthMiddleware(deps.TokenManager, deps.Logger)
	moderatorMW := RequireRole(authsvc.RoleModerator)

	r.Get("/healthz", healthHandler.Get)

	r.With(authMW).Get("/candidates", candidateHandler.List)
	r.With(authMW).Post("/swipes", swipeHandler.Handle)

	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", profileHandler.Upsert)
		r.With(authMW).Get("/{id}", profileHandler.Get)
		r.With(authMW).Post("/active", profileHandler.SetActive)
	})
	r.With(authMW).Get("/wallet", profileHandler.Wallet)

	r.Route("/reviews", func(r chi.Router) {
		r.With(authMW).Post("/", reviewHandler.Submit)
		r.With(authMW).Get("/history", reviewHandler.History)
		r.With(authMW, moderatorMW).Post("/{id}/decision", reviewHandler.Decide)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", messageHandler.Send)
		r.Patch("/{id}", messageHandler.Edit)
		r.Delete("/{id}", messageHandler.Delete)
		r.Post("/delivered", messageHandler.MarkDelivered)
		r.Post("/read", messageHandler.MarkRead)
	})
	r.With(authMW).Get("/threads/{profileID}", messageHandler.Thread)
	r.With(authMW).Post("/clips", messageHandler.UploadClip)

	r.With(authMW).Post("/reports", reportHandler.Create)

	// Settlement callbacks authenticate with a request signature, not a
	// bearer token.
	r.Post("/settlements/webhook", settlementHandler.Webhook)
	r.Get("/settlements", settlementHandler.GetByTxID)
}
