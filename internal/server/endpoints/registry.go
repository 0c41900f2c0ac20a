package endpoints

import (
	"github.com/pressroom/pressroom/internal/api"
)

// All returns all endpoint instances in registration order.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Project endpoints
		&CreateProjectEndpoint{},
		&ListProjectsEndpoint{},
		&GetProjectEndpoint{},
		&UpdateProjectEndpoint{},
		&DeleteProjectEndpoint{},

		// Research stage endpoints
		&FrameworkEndpoint{},
		&UploadResearchEndpoint{},
		&UploadReferenceEndpoint{},
		&GetSessionEndpoint{},

		// Writing stage endpoints
		&StorylineEndpoint{},
		&ArticleEndpoint{},
		&PolishEndpoint{},

		// Decomposition stage endpoints
		&SplitEndpoint{},
		&ImageTextEndpoint{},
		&SkeletonEndpoint{},
		&ImagePromptsEndpoint{},

		// Image stage endpoints
		&ImagesEndpoint{},
		&CoverEndpoint{},

		// Assembly and publishing endpoints
		&FinalizeEndpoint{},
		&PublishEndpoint{},

		// Style prompt endpoints
		&GetStylePromptEndpoint{},
		&SetStylePromptEndpoint{},
	}
}
