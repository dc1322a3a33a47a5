package endpoints

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/svcctx"
)

// PromptResponse represents a single resolved prompt.
type PromptResponse struct {
	Key         string   `json:"key"`
	Text        string   `json:"text,omitempty"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash"`
	Source      string   `json:"source"`
	IsOverride  bool     `json:"is_override"`

	// OverridePath is where an operator would place an override file.
	OverridePath string `json:"override_path,omitempty"`
}

// PromptsListResponse contains all prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

func newPromptResponse(resolver *prompts.Resolver, p prompts.ResolvedPrompt, withText bool) PromptResponse {
	resp := PromptResponse{
		Key:          p.Key,
		Variables:    p.Variables,
		Hash:         p.Hash,
		Source:       p.Source,
		IsOverride:   p.IsOverride,
		OverridePath: resolver.OverridePath(p.Key),
	}
	if embedded, ok := resolver.GetEmbedded(p.Key); ok {
		resp.Description = embedded.Description
	}
	if withText {
		resp.Text = p.Text
	}
	return resp
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List all prompts
//	@Description	List registered prompts and whether an override file is in effect
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	PromptsListResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.PromptResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not available")
		return
	}

	resolved := resolver.ResolveAll()
	resp := PromptsListResponse{Prompts: make([]PromptResponse, len(resolved))}
	for i, p := range resolved {
		resp.Prompts[i] = newPromptResponse(resolver, p, false)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key...}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key...}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a prompt
//	@Description	Get the text that will be used for a prompt key
//	@Tags			prompts
//	@Produce		json
//	@Param			key	path		string	true	"Prompt key (e.g., outline)"
//	@Success		200	{object}	PromptResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/prompts/{key} [get]
func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return
	}

	resolver := svcctx.PromptResolverFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt resolver not available")
		return
	}

	resolved, err := resolver.Resolve(key)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, newPromptResponse(resolver, *resolved, true))
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			if textOnly {
				cmd.Print(resp.Text)
				return nil
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text", false, "Print only the prompt text")
	return cmd
}
