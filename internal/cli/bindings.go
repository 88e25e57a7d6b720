package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

func newBindingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "Inspect persisted handler bindings",
	}
	cmd.AddCommand(newBindingsListCmd(a))
	cmd.AddCommand(newBindingsClearCmd(a))
	return cmd
}

func newBindingsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bindings in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), s, observability.DiscardLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			bindings, err := store.Bindings(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tKEY\tHANDLER\tREGISTERED")
			for _, b := range bindings {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.Sequence, b.Key, b.Handler, b.RegisteredAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newBindingsClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every persisted binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), s, observability.DiscardLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "bindings cleared")
			return nil
		},
	}
}
