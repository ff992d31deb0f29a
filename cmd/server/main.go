package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	appconfig "github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/models"
	"github.com/mikeboe/research-agent/pkg/research"
	"github.com/mikeboe/research-agent/pkg/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	ctx := context.Background()

	// Database Connection
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Schema
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Model Registry: the research model is served by Gemini with Google
	// Search grounding enabled.
	registry := models.NewRegistry()
	geminiClient, err := models.NewGeminiClient(ctx, models.GeminiConfig{
		APIKey: cfg.GoogleApiKey,
		Model:  cfg.ResearchModel,
	})
	if err != nil {
		log.Fatalf("Failed to init Gemini client: %v", err)
	}
	registry.Register(cfg.ResearchModel, geminiClient)

	// The fast model is a plain completion client without search grounding.
	if cfg.FastModel != "" && cfg.FastModel != cfg.ResearchModel {
		fastClient, err := models.NewGoogleAIClient(ctx, cfg.FastModel, cfg.GoogleApiKey)
		if err != nil {
			log.Fatalf("Failed to init fast model client: %v", err)
		}
		registry.Register(cfg.FastModel, fastClient)
	}
	log.Printf("Registered models: %v", registry.Models())

	researchCfg := research.Config{ResearchModel: cfg.ResearchModel}

	// Handler used by the MCP tool endpoint (synchronous, no persistence)
	mcpHandler, err := research.New(researchCfg, registry)
	if err != nil {
		log.Fatalf("Failed to init research handler: %v", err)
	}

	// Initialize Service & Handler
	svc := server.NewService(db, researchCfg, registry)
	handler := server.NewHandler(svc, mcpHandler)

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
		ExposeHeaders:    []string{"Content-Length", "Mcp-Session-Id"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
