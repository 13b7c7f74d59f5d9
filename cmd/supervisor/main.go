package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/config"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/engine"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/logging"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket/servicenow"
)

var rootCmd = &cobra.Command{
	Use:   "supervisor",
	Short: "Rule-driven ServiceNow ticket supervisor",
	Long: `supervisor polls a ServiceNow table for open tickets on behalf of one or
more robots, matches every ticket against the robot's rules and performs the
actions of the matching rules (update fields, run a command, or just log).`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TSUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "TicketSupervisor.cfg", "supervisor configuration file")
	pf.StringP("servicenow", "s", "", "ServiceNow instance (overrides snc)")
	pf.StringP("username", "u", "", "ServiceNow user (overrides user)")
	pf.StringP("password", "p", "", "ServiceNow password (overrides pwd)")
	pf.StringSlice("robot", nil, "robot section(s) to process (default: all)")
	pf.Bool("debug", false, "generate additional diagnostic messages")
	pf.String("log-level", "info", "log level (overridden by --debug)")
	pf.String("log-format", "code", "log format: code, text or json")
	pf.String("log-output", "stdout", "log output: stdout, file or both")
	pf.String("log-file", "logs/supervisor.log", "rotating log file for file/both output")
	for _, name := range []string{"config", "servicenow", "username", "password", "robot",
		"debug", "log-level", "log-format", "log-output", "log-file"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())
}

// loadConfig reads the configuration file and applies credential
// overrides from flags or TSUP_* variables to every section.
func loadConfig() (config.File, error) {
	f, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	overrides := map[string]string{
		"snc":  viper.GetString("servicenow"),
		"user": viper.GetString("username"),
		"pwd":  viper.GetString("password"),
	}
	if f[config.GlobalSection] == nil {
		f[config.GlobalSection] = map[string]interface{}{}
	}
	for key, val := range overrides {
		if val == "" {
			continue
		}
		for name, section := range f {
			if section == nil {
				section = map[string]interface{}{}
				f[name] = section
			}
			section[key] = val
		}
	}
	return f, nil
}

// robots returns the --robot selection or every robot section.
func robots(f config.File) []string {
	if sel := viper.GetStringSlice("robot"); len(sel) > 0 {
		return sel
	}
	return engine.Robots(f)
}

// setupLogging configures the standard logrus logger and returns the
// action file hook already attached to it.
func setupLogging(f config.File) (*logrus.Entry, *logging.ActionFileHook, error) {
	global, err := config.EffectiveConfig(config.GlobalSection, f)
	if err != nil {
		return nil, nil, err
	}
	level := viper.GetString("log-level")
	if viper.GetBool("debug") {
		level = "debug"
	}
	l := logrus.StandardLogger()
	if err := logging.Init(l, logging.Options{
		Level:      level,
		Format:     viper.GetString("log-format"),
		Output:     viper.GetString("log-output"),
		FilePath:   viper.GetString("log-file"),
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Prefix:     global.MsgPrefix,
	}); err != nil {
		return nil, nil, err
	}
	hook := logging.NewActionFileHook(global.MsgPrefix)
	l.AddHook(hook)
	return logrus.NewEntry(l), hook, nil
}

func newSource(log *logrus.Entry) engine.SourceFactory {
	return func(s config.Settings) (ticket.Source, error) {
		return servicenow.New(servicenow.Options{
			Instance: s.Instance,
			User:     s.User,
			Password: s.Password,
			Proxy:    s.Proxy,
			Logger:   log.WithField(logging.FieldPrefix, s.MsgPrefix),
		})
	}
}
