package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/config"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/rule"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/vars"
)

var errInvalid = errors.New("configuration has errors")

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration, rule and variable files",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := checkOnce()
			watch, _ := cmd.Flags().GetBool("watch")
			if !watch || paths == nil {
				return err
			}
			stop, werr := config.Watch(paths, func(path string) {
				fmt.Printf("\n%s changed\n", path)
				_, _ = checkOnce()
			}, func(err error) {
				fmt.Fprintln(os.Stderr, "watch:", err)
			})
			if werr != nil {
				return werr
			}
			defer stop()
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().Bool("watch", false, "re-check whenever a checked file changes")
	return cmd
}

// checkOnce validates every robot and prints one row per robot. It returns
// the files involved so they can be watched.
func checkOnce() ([]string, error) {
	cfgPath := viper.GetString("config")
	file, err := loadConfig()
	if err != nil {
		return nil, err
	}
	paths := []string{cfgPath}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Robot", "Rule file", "Rules", "Variables", "Status"})
	failed := false
	for _, robot := range robots(file) {
		row, rulePath, ok := checkRobot(robot, file)
		if rulePath != "" {
			paths = append(paths, rulePath)
		}
		failed = failed || !ok
		tw.AppendRow(row)
	}
	tw.Render()
	if failed {
		return paths, errInvalid
	}
	return paths, nil
}

func checkRobot(robot string, file config.File) (table.Row, string, bool) {
	s, err := config.EffectiveConfig(robot, file)
	if err == nil {
		err = config.Validate(robot, s)
	}
	if err != nil {
		return table.Row{robot, "-", "-", "-", err.Error()}, "", false
	}
	path := s.RulePath(robot)
	rules, err := rule.Load(path)
	if err == nil {
		err = rule.Validate(rules)
	}
	if err != nil {
		return table.Row{robot, path, len(rules), "-", err.Error()}, path, false
	}
	v, err := vars.Provider{Dir: s.CfgDir, Environ: func() []string { return nil }}.Load(robot)
	if err != nil {
		return table.Row{robot, path, len(rules), "-", err.Error()}, path, false
	}
	return table.Row{robot, path, len(rules), len(v), "ok"}, path, true
}
