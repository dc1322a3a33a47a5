package endpoints

import (
	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/inference"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	InferenceManager *inference.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{InferenceManager: cfg.InferenceManager},

		// Document endpoints
		&CreateDocumentEndpoint{},

		// Job endpoints
		&ListJobsEndpoint{},
		&JobStatsEndpoint{},
		&GetJobEndpoint{},
		&DeleteJobEndpoint{},
		&DownloadEndpoint{},
		&PDFEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},

		// Config endpoint
		&GetConfigEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
