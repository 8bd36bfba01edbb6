package endpoints

import (
	"github.com/jackzampolin/leaf/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Document endpoints
		&OpenDocumentEndpoint{},
		&ListDocumentsEndpoint{},
		&GetDocumentEndpoint{},
		&CloseDocumentEndpoint{},

		// Layout and render endpoints
		&LayoutEndpoint{},
		&PageImageEndpoint{},

		// Session endpoints
		&ViewportEndpoint{},
		&ZoomEndpoint{},

		// Cache endpoints
		&CacheStatsEndpoint{},
		&ClearCacheEndpoint{},
	}
}
