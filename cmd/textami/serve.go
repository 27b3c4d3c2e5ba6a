package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/textami/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis, mapping and generation operations over HTTP",
		Long: `Start an HTTP server exposing:

  POST /v1/documents/analyze   {"locator": "...", "sample": "..."}
  POST /v1/columns/analyze     {"locator": "..."} or {"table": {"headers": [...], "rows": [[...]]}}
  POST /v1/mappings            {"placeholders": [...], "columns": [...]}
  POST /v1/batches             {"template": "...", "dataset": "...", "plan": {...}, "batchSize": 10}
  GET  /healthz
  GET  /metrics                Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, appOptions{withOutput: true, withInference: true})
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.cfg.Server.Addr
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				addr = v
			}

			return server.New(a.pipeline, nil).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (defaults to server.addr)")
	return cmd
}
