// Package docs provides generated OpenAPI documentation.
//
// Pressroom API
//
//	@title			Pressroom API
//	@version		1.0
//	@description	Guided biotech article pipeline API: research, drafting, decomposition, image generation, and WeChat publishing.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/pressroom/pressroom
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/pressroom/serve.go -o ./swagger --parseDependency --parseInternal
