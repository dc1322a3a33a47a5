package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/svcctx"
)

// ConfigResponse is the effective configuration with secrets masked.
type ConfigResponse struct {
	File   string         `json:"file,omitempty"`
	Config *config.Config `json:"config"`
}

// GetConfigEndpoint handles GET /api/config.
type GetConfigEndpoint struct{}

func (e *GetConfigEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/config", e.handler
}

func (e *GetConfigEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get configuration
//	@Description	Effective configuration after defaults, file and environment. API keys are masked.
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	ConfigResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/config [get]
func (e *GetConfigEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigManagerFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not initialized")
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{
		File:   cm.ConfigFile(),
		Config: cm.Get().Redacted(),
	})
}

func (e *GetConfigEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the server's effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ConfigResponse
			if err := client.Get(cmd.Context(), "/api/config", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
