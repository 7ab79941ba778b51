package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"predictd/internal/features"
	"predictd/internal/form"
	"predictd/internal/httpapi"
)

func newFormCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Fill in the inputs interactively and print a prediction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeCache, err := a.newService(ctx, false)
			if err != nil {
				return err
			}
			defer closeCache()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			return form.Run(ctx, svc, cmd.OutOrStdout())
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve the model, verify it binds to the schema and run one prediction on the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flush, err := a.initTracing(ctx)
			if err != nil {
				return err
			}
			defer flush()
			svc, closeCache, err := a.newService(ctx, false)
			if err != nil {
				return err
			}
			defer closeCache()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			raw := svc.Schema().WithDefaults(features.Fields{})
			res, _, err := svc.PredictFields(ctx, raw)
			if err != nil {
				return fmt.Errorf("prediction on defaults: %w", err)
			}
			h := svc.Handle()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s %s version %s from %s (%s)\n", h.Name, h.Stage, h.Version, h.Backend, h.Source)
			fmt.Fprintln(cmd.OutOrStdout(), form.Render(res))
			return nil
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the input schema of the configured model kind as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := features.Kind(a.cfg.Kind)
			s, _ := features.SchemaFor(k)
			enc, _ := features.EncoderFor(k)
			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			return out.Encode(httpapi.SchemaResponse(s, enc))
		},
	}
}
