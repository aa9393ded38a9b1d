package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/erkit/pkg/api"
	"github.com/matzehuels/erkit/pkg/config"
	"github.com/matzehuels/erkit/pkg/store"
)

// serveCommand runs the HTTP API against the configured document store.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the property-panel HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			st, err := openStore(cfg.Server)
			if err != nil {
				return err
			}
			defer st.Close()

			rc, err := newCache(noCache)
			if err != nil {
				return err
			}
			defer rc.Close()

			c.Logger.Info("document store", "backend", cfg.Server.Store)
			srv := api.New(api.Options{
				Store:   st,
				Modeler: c.modelerOptions(cfg),
				Cache:   rc,
				Logger:  c.Logger,
			})
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

// openStore creates the document store selected by cfg.
func openStore(cfg config.Server) (store.Store, error) {
	if cfg.Store == config.StoreRedis {
		return store.NewRedisStore(store.RedisOptions{Addr: cfg.RedisAddr, TTL: cfg.TTL()}), nil
	}
	return store.NewFileStore(cfg.Dir)
}
