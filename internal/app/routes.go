package app

import (
	"net/http"

	"github.com/zolani/khusela/internal/handler"
	"github.com/zolani/khusela/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), app.Sessions, &app.Config)

	healthHandler := handler.NewHealthHandler(&handler.HealthHandler{
		ErrHandler: app.errorHandler,
	})

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		ReferralRepo: app.DB.Referral(),
		Flows:        app.Flows,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
		Mailer:       app.Mailer,
		Config:       &app.Config,
	})

	kycHandler := handler.NewKycHandler(&handler.KycHandler{
		Flows:        app.Flows,
		KycStore:     app.KycStore,
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		Kafka:        app.Kafka,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	productHandler := handler.NewProductHandler(&handler.ProductHandler{
		ProductRepo: app.DB.Product(),
		ErrHandler:  app.errorHandler,
	})

	underwritingHandler := handler.NewUnderwritingHandler(&handler.UnderwritingHandler{
		ProductRepo:  app.DB.Product(),
		PolicyRepo:   app.DB.Policy(),
		ActivityRepo: app.DB.Activity(),
		Flows:        app.Flows,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	paymentHandler := handler.NewPaymentHandler(&handler.PaymentHandler{
		PolicyRepo:   app.DB.Policy(),
		ActivityRepo: app.DB.Activity(),
		Flows:        app.Flows,
		Kafka:        app.Kafka,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	policyHandler := handler.NewPolicyHandler(&handler.PolicyHandler{
		PolicyRepo: app.DB.Policy(),
		ErrHandler: app.errorHandler,
	})

	claimHandler := handler.NewClaimHandler(&handler.ClaimHandler{
		ClaimRepo:    app.DB.Claim(),
		PolicyRepo:   app.DB.Policy(),
		ActivityRepo: app.DB.Activity(),
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	mux.HandleFunc("GET /health", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/signup", authHandler.HandleAuthSignup)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)
	mux.HandleFunc("GET /referrals/validate/{code}", authHandler.HandleValidateReferralCode)

	authenticated := func(fn http.HandlerFunc) http.Handler {
		return middlewareRepo.RequireAuthenticatedUser(fn)
	}

	mux.Handle("POST /auth/logout", authenticated(authHandler.HandleAuthLogout))
	mux.Handle("GET /auth/me", authenticated(authHandler.HandleAuthMe))

	mux.Handle("GET /kyc/session", authenticated(kycHandler.HandleSession))
	mux.Handle("POST /kyc/steps/{step}/start", authenticated(kycHandler.HandleStartStep))
	mux.Handle("POST /kyc/steps/{step}", authenticated(kycHandler.HandleSubmitStep))
	mux.Handle("POST /kyc/back", authenticated(kycHandler.HandleGoBack))
	mux.Handle("POST /kyc/cancel", authenticated(kycHandler.HandleCancel))

	mux.Handle("GET /products", authenticated(productHandler.HandleListProducts))
	mux.Handle("POST /products/quote", authenticated(productHandler.HandleQuote))

	mux.Handle("GET /underwriting/questions", authenticated(underwritingHandler.HandleListQuestions))
	mux.Handle("POST /underwriting", authenticated(underwritingHandler.HandleSubmit))

	mux.Handle("POST /payment", authenticated(paymentHandler.HandleSetup))

	mux.Handle("GET /policies", authenticated(policyHandler.HandleListPolicies))

	mux.Handle("POST /claims", authenticated(claimHandler.HandleInitiateClaim))
	mux.Handle("GET /claims", authenticated(claimHandler.HandleListClaims))
	mux.Handle("GET /claims/{id}", authenticated(claimHandler.HandleGetClaim))
	mux.Handle("POST /claims/{id}/cancel", authenticated(claimHandler.HandleCancelClaim))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
