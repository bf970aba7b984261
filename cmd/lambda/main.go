package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"seopilot-backend/infrastructure/config"
	"seopilot-backend/infrastructure/di"
	"seopilot-backend/interfaces/http/rest"
)

// Global variables for Lambda lifecycle management
var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container
	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// API Gateway throttles upstream; the shared limiter is not needed here.
	router := rest.NewRouter(
		container.CommandBus,
		container.QueryBus,
		cfg,
		nil,
		container.Logger,
	)

	handler := router.Setup()

	// Create Lambda adapter - need to type assert to *chi.Mux
	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	// API Gateway's JWT authorizer has already validated the caller;
	// mark the request so the auth middleware trusts the headers.
	authHeader := req.Headers["authorization"]
	if authHeader == "" {
		authHeader = req.Headers["Authorization"]
	}
	if authHeader == "" || strings.HasPrefix(authHeader, "Bearer ") {
		req.Headers["X-API-Gateway-Authorized"] = "true"
		if req.RequestContext.Authorizer != nil && req.RequestContext.Authorizer.JWT != nil {
			claims := req.RequestContext.Authorizer.JWT.Claims
			if userID, ok := claims["sub"]; ok {
				req.Headers["X-User-ID"] = userID
			}
			if email, ok := claims["email"]; ok {
				req.Headers["X-User-Email"] = email
			}
		}
	}

	response, err := chiLambda.ProxyWithContextV2(ctx, req)

	if response.Headers == nil {
		response.Headers = make(map[string]string)
	}
	if coldStart {
		response.Headers["X-Cold-Start"] = "true"
		response.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		response.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if response.StatusCode >= 500 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", response.StatusCode),
			zap.String("body", response.Body),
		)
	}

	return response, err
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(Handler)
}
