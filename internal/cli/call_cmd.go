package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/hr-gateway/clients"
	"github.com/jrsteele09/hr-gateway/sessions"
	"github.com/spf13/cobra"
)

func newCallCommand(a *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "call <GET|POST> <route>",
		Short: "Call a gateway route with the stored session",
		Long: `Call a gateway route relative to /api with the tenant of the stored session.
Each call counts as activity and renews the session.

Examples:
  hrctl call GET mobile/leave-balance
  hrctl call POST mobile/surveys/submit --data '{"surveyId":7,"answers":[{"q":1,"a":"Evet"}]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			if method != http.MethodGet && method != http.MethodPost {
				return fmt.Errorf("unsupported method %q", args[0])
			}

			rec, err := a.manager.Restore()
			if err != nil {
				return notLoggedIn(err)
			}
			if _, err := a.manager.RecordActivity(sessions.EventKeyPress); err != nil {
				return err
			}

			var body any
			if data != "" {
				var raw json.RawMessage
				if err := json.Unmarshal([]byte(data), &raw); err != nil {
					return fmt.Errorf("--data is not valid JSON: %w", err)
				}
				body = raw
			}

			resp, err := a.gateway.Call(cmd.Context(), method, strings.TrimPrefix(args[1], "/"), rec.TenantName, rec.SessionToken, body)
			if err != nil {
				var apiErr *clients.APIError
				if errors.As(err, &apiErr) {
					return fmt.Errorf("%d %s", apiErr.Status, apiErr.Message)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}
