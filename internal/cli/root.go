// Package cli implements the hrctl command tree.
package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/jrsteele09/hr-gateway/clients"
	"github.com/jrsteele09/hr-gateway/internal/config"
	"github.com/jrsteele09/hr-gateway/sessions"
	"github.com/jrsteele09/hr-gateway/sessions/filestore"
	"github.com/spf13/cobra"
)

const (
	gatewayEnvVar  = "HRCTL_GATEWAY"
	passwordEnvVar = "HRCTL_PASSWORD"
	defaultGateway = "http://localhost:8080"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	gatewayURL string
	storePath  string

	gateway *clients.Gateway
	store   *filestore.Store
	manager *sessions.Manager
}

func (a *app) init() error {
	u, err := url.Parse(a.gatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid gateway URL %q", a.gatewayURL)
	}
	a.gateway = clients.NewGateway(a.gatewayURL)
	a.store = filestore.New(a.storePath)
	a.manager = sessions.NewManager(a.store, a.gateway, config.DefaultSession(),
		sessions.WithTenantHost(u.Hostname()),
	)
	return nil
}

// NewRootCommand builds the hrctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "hrctl",
		Short: "Client for the H&R Enterprise Suite gateway",
		Long: `hrctl logs in to the H&R Enterprise Suite gateway and calls its routes.

The session is kept in a local file and expires after 30 minutes without
activity. Five failed password attempts block the username for 15 minutes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.gatewayURL, "gateway", config.GetEnv(gatewayEnvVar, defaultGateway), "gateway base URL")
	root.PersistentFlags().StringVar(&a.storePath, "store", filestore.DefaultPath(), "session file")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newStatusCommand(a),
		newWhoamiCommand(a),
		newCallCommand(a),
		newRouteCommand(a),
		newWatchCommand(a),
	)
	return root
}

func passwordFromEnv() string {
	return os.Getenv(passwordEnvVar)
}
