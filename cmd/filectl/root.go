package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filectl/internal/config"
	"filectl/internal/logging"
	"filectl/internal/logretention"
	"filectl/internal/types"
	"filectl/internal/utils"
)

// proc and log are populated once in rootCommand's PersistentPreRunE and
// shared by every subcommand for the lifetime of the process, the direct
// analogue of the teacher's main.go building one types.AppConfig and one
// *logging.Logger up front.
var (
	proc types.ProcessConfig
	log  *logging.Logger
)

var rootConfiguration struct {
	workers          int
	progressBuffer   int
	configDir        string
	logDir           string
	noLogs           bool
	logRetentionDays int
	notifyOnFatal    bool
}

var rootCommand = &cobra.Command{
	Use:   "filectl",
	Short: "Batch file operations for photo and video creators",
	Long: "filectl runs bulk rename, extension-targeted delete, JPEG recompression,\n" +
		"directory flattening, EXIF datetime offset and JPEG metadata stripping\n" +
		"over an explicit list of input files or directories.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: rootPersistentPreRun,
}

func rootPersistentPreRun(cmd *cobra.Command, args []string) error {
	root, err := utils.ExeDir()
	if err != nil {
		root, _ = os.Getwd()
	}

	configDir := rootConfiguration.configDir
	if configDir == "" {
		configDir = filepath.Join(root, "configs")
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ConfigDir = configDir

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = rootConfiguration.workers
	}
	if flags.Changed("progress-buffer") {
		cfg.ProgressBuffer = rootConfiguration.progressBuffer
	}
	if flags.Changed("no-logs") {
		cfg.LogSettings.NoLogs = rootConfiguration.noLogs
	}
	if flags.Changed("log-dir") {
		cfg.LogSettings.LogDir = rootConfiguration.logDir
	}
	if cfg.LogSettings.LogDir == "" {
		cfg.LogSettings.LogDir = filepath.Join(root, "logs")
	}
	if cfg.ProgressBuffer <= 0 {
		cfg.ProgressBuffer = 64
	}

	lg, err := logging.New(cfg.ConfigDir, cfg.LogSettings)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if !cfg.LogSettings.NoLogs {
		if err := logretention.Prune(cfg.LogSettings.LogDir, rootConfiguration.logRetentionDays); err != nil {
			lg.Warnf("prune old logs: %v", err)
		}
	}

	proc = cfg
	log = lg
	return nil
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.IntVar(&rootConfiguration.workers, "workers", 0, "Worker pool size (0 = runtime.GOMAXPROCS)")
	flags.IntVar(&rootConfiguration.progressBuffer, "progress-buffer", 0, "Progress event channel buffer size (0 = default)")
	flags.StringVar(&rootConfiguration.configDir, "config-dir", "", "Config directory (defaults next to the binary)")
	flags.StringVar(&rootConfiguration.logDir, "log-dir", "", "Log directory (defaults next to the binary)")
	flags.BoolVar(&rootConfiguration.noLogs, "no-logs", false, "Disable log files, print to stdout instead")
	flags.IntVar(&rootConfiguration.logRetentionDays, "log-retention-days", 14, "Delete log files older than this many days on startup")
	flags.BoolVar(&rootConfiguration.notifyOnFatal, "notify-on-fatal", false, "Show a desktop popup on fatal errors, for unattended invocations")

	rootCommand.AddCommand(renameCommand)
	rootCommand.AddCommand(deleteCommand)
	rootCommand.AddCommand(compressCommand)
	rootCommand.AddCommand(flattenCommand)
	rootCommand.AddCommand(exifOffsetCommand)
	rootCommand.AddCommand(metadataStripCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		Fatal(err)
	}
}
