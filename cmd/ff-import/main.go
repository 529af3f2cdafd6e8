// Package main 稿件导入命令行工具，本地解析稿件并输出章节 JSON
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/onedollarbanana/FictionForge-sub002/internal/config"
	"github.com/onedollarbanana/FictionForge-sub002/pkg/logger"
)

// Version 版本信息，构建时注入
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configDir string
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:           "ff-import",
		Short:         "Parse manuscripts into chapters the way the import API does",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitWithWriter(cmd.ErrOrStderr(), logLevel, "text")
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Load configs/config.yaml from this directory instead of built-in defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	loadConfig := func() (*config.Config, error) {
		if configDir == "" {
			return config.Defaults(), nil
		}
		return config.LoadFromDir(configDir)
	}

	rootCmd.AddCommand(parseCmd(loadConfig))
	rootCmd.AddCommand(tokenCmd(loadConfig))

	return rootCmd
}
