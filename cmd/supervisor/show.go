package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/config"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Show every field of one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadConfig()
			if err != nil {
				return err
			}
			log, _, err := setupLogging(file)
			if err != nil {
				return err
			}
			section := config.GlobalSection
			if rs := viper.GetStringSlice("robot"); len(rs) > 0 {
				section = rs[0]
			}
			s, err := config.EffectiveConfig(section, file)
			if err != nil {
				return err
			}
			src, err := newSource(log)(s)
			if err != nil {
				return err
			}
			t, err := src.Get(cmd.Context(), s.Table, args[0])
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return printTicket(t, asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

func printTicket(t ticket.Ticket, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}
	fields := t.Strings()
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, name := range t.Names() {
		tw.AppendRow(table.Row{name, fields[name]})
	}
	tw.Render()
	fmt.Println()
	return nil
}
