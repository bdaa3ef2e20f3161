package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelbridge/internal/bridge"
	"modelbridge/internal/config"
	"modelbridge/internal/engine"
	"modelbridge/internal/logging"
	"modelbridge/internal/manager"
)

const defaultAddr = ":8080"

// settings is the merged result of config file, flags and defaults.
type settings struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:           "modelbridge",
		Short:         "Run memory-mapped model files through an inference engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&s.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.String("models-dir", "", "Directory with model files; bare model names resolve here")
	pf.String("engine", "", "Inference engine: dense|onnx (default dense)")
	pf.String("onnx-library", "", "Path to the onnxruntime shared library (onnx engine)")
	pf.Int("max-concurrent", 0, "Max concurrently executing calls (0 = unbounded)")
	pf.Bool("disable-mmap", false, "Read model files into memory instead of mapping them")
	pf.String("log-level", "", "Log level: debug|info|warn|error (default info)")
	pf.String("log-format", "", "Log format: json|console (default json)")
	pf.String("log-file", "", "Also write logs to this file, rotated")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return s.resolve(cmd)
	}

	root.AddCommand(newServeCmd(s), newRunCmd(s), newModelsCmd(s), newEnginesCmd())
	return root
}

// resolve loads the config file, then applies flags the user set
// explicitly, then defaults.
func (s *settings) resolve(cmd *cobra.Command) error {
	if s.configPath != "" {
		cfg, err := config.Load(s.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		s.cfg = cfg
	}
	fl := cmd.Flags()
	str := func(name string, dst *string) {
		if fl.Changed(name) {
			*dst, _ = fl.GetString(name)
		}
	}
	str("models-dir", &s.cfg.ModelsDir)
	str("engine", &s.cfg.Engine)
	str("onnx-library", &s.cfg.ONNXLibrary)
	str("log-level", &s.cfg.LogLevel)
	str("log-format", &s.cfg.LogFormat)
	str("log-file", &s.cfg.LogFile)
	if fl.Changed("max-concurrent") {
		s.cfg.MaxConcurrent, _ = fl.GetInt("max-concurrent")
	}
	if fl.Changed("disable-mmap") {
		s.cfg.DisableMmap, _ = fl.GetBool("disable-mmap")
	}

	// Defaults
	if s.cfg.Addr == "" {
		s.cfg.Addr = defaultAddr
		if v := os.Getenv("MODELBRIDGE_ADDR"); v != "" {
			s.cfg.Addr = v
		}
	}
	if s.cfg.Engine == "" {
		s.cfg.Engine = engine.Default
	}
	return nil
}

// logger builds the process logger. Diagnostics go to errOut so stdout stays
// clean for command output.
func (s *settings) logger(errOut io.Writer) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:  s.cfg.LogLevel,
		Format: s.cfg.LogFormat,
		File:   s.cfg.LogFile,
		Output: errOut,
	})
}

// newManager wires engine, loader, bridge and manager from the settings.
func (s *settings) newManager(log *zerolog.Logger) (*manager.Manager, error) {
	eng, err := engine.Lookup(s.cfg.Engine, engine.Options{ONNXLibrary: s.cfg.ONNXLibrary})
	if err != nil {
		return nil, err
	}
	b := bridge.New(bridge.Config{
		Engine:        eng,
		LoaderOptions: loaderOptions(s.cfg),
		MaxConcurrent: s.cfg.MaxConcurrent,
		Logger:        log,
	})
	return manager.NewWithConfig(manager.ManagerConfig{
		Bridge:        b,
		ModelsDir:     s.cfg.ModelsDir,
		MaxQueueDepth: s.cfg.MaxQueueDepth,
		MaxWait:       time.Duration(s.cfg.QueueWaitSeconds) * time.Second,
		Logger:        log,
	}), nil
}
