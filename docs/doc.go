// Package docs provides generated OpenAPI documentation.
//
// docgen API
//
//	@title			docgen API
//	@version		1.0
//	@description	Generates multi-chapter LaTeX documents with a language model and tracks generation jobs.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/docgen
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:3000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/docgen/serve.go -o ./swagger --parseDependency --parseInternal
