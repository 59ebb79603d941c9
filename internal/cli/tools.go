package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the agent may call",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCOPE\tPARAMS")
		for _, spec := range app.Registry.Specs() {
			scope := "global"
			if spec.CustomerScoped {
				scope = fmt.Sprintf("customer #%d", app.Registry.Binder().CustomerID())
			}
			params := make([]string, 0, len(spec.Params))
			for _, p := range spec.Params {
				name := p.Name
				if !p.Required {
					name += "?"
				}
				params = append(params, name)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Name, scope, strings.Join(params, ", "))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
