package main

import (
	"fmt"

	"github.com/harunnryd/kabu/internal/config"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long:  `Print the catalog of tools the assistant can call, with their descriptions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg := cfg
		if loadedCfg == nil {
			var err error
			loadedCfg, err = config.Load(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		registry, err := buildToolRegistry(loadedCfg)
		if err != nil {
			return err
		}

		defs := registry.Descriptors()
		if len(defs) == 0 {
			fmt.Println("No tools registered")
			return nil
		}

		purple := lipgloss.Color("99")
		headerStyle := lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Padding(0, 1)
		cellStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(purple)).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers("Name", "Description")

		for _, def := range defs {
			t.Row(def.Name, def.Description)
		}

		fmt.Println(t.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
