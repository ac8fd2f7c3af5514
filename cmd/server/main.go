package main

import (
	"os"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd 不带子命令时启动服务
var rootCmd = &cobra.Command{
	Use:           "fundraiser",
	Short:         "Escrowed crowdfunding service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(serveCmd, addressCmd, keygenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
