package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/swaggo/swag"

	"github.com/jackzampolin/docgen/internal/api"
)

// SwaggerEndpoint serves the OpenAPI spec registered by the generated docs package.
type SwaggerEndpoint struct {
	// InstanceName selects a registered swag instance. Empty uses the default.
	InstanceName string
}

func (e *SwaggerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerEndpoint) RequiresInit() bool { return false }

func (e *SwaggerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var (
		doc string
		err error
	)
	if e.InstanceName != "" {
		doc, err = swag.ReadDoc(e.InstanceName)
	} else {
		doc, err = swag.ReadDoc()
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "swagger spec not registered")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write([]byte(doc))
}

func (e *SwaggerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Fetch OpenAPI spec from server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			var spec map[string]any
			if err := client.Get(cmd.Context(), "/swagger.json", &spec); err != nil {
				return err
			}

			if outputFile == "" {
				return api.Output(spec)
			}
			data, err := json.MarshalIndent(spec, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write the spec to this file")
	return cmd
}

// SwaggerUIEndpoint serves Swagger UI.
type SwaggerUIEndpoint struct{}

func (e *SwaggerUIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger", e.handler
}

func (e *SwaggerUIEndpoint) RequiresInit() bool { return false }

func (e *SwaggerUIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
  <title>docgen API</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}

func (e *SwaggerUIEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:    "swagger-ui",
		Hidden: true,
		Short:  "Print the Swagger UI address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("Open in browser:", getServerURL()+"/swagger")
			return nil
		},
	}
}
