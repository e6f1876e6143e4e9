package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wordsmith/internal/transport"
)

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the transformation service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			h, ok, err := c.Health(cmd.Context())
			if !ok {
				return fmt.Errorf("service at %s is unreachable: %w", a.cfg.API.BaseURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", h.AppName, h.Version, h.Status)
			return nil
		},
	}
}

func (a *app) probeCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Query a running engine's gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = fmt.Sprintf("localhost:%d", a.cfg.GRPC.Port)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, err := transport.Probe(ctx, addr, transport.Service)
			if err != nil {
				return fmt.Errorf("probe %s: %w", addr, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st)
			if st != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("engine at %s is %s", addr, st)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Engine address (default localhost:<grpc.port>)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "Probe timeout")
	return cmd
}
