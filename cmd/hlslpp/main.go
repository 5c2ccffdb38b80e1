package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gogpu/hlslpp"
	"github.com/gogpu/hlslpp/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Preprocessing flags
	includeDirs []string
	defines     []string
	shaderModel string
	stage       string
	opaqueMode  string

	keepComments bool
	lineMarkers  bool

	// Output flags
	outputPath string
	outputDir  string
	watchMode  bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hlslpp [files...]",
	Short: "hlslpp - Pure Go HLSL preprocessor",
	Long: `hlslpp runs the preprocessing phase of HLSL compilation: macro
expansion, conditional compilation, include resolution and pragma
handling, compatible with fxc/dxc behavior.

Native C/C++ helper headers found in shader trees are detected and
passed through byte-for-byte instead of being rewritten.

Examples:
  hlslpp shader.hlsl
  hlslpp -I shaders/include -D DEBUG=1 -o shader.i shader.hlsl
  hlslpp --stage compute --shader-model 6_0 --watch shaders/*.hlsl`,
	Args: cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hlslpp version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("hlslpp 0.1.0")
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&configPath, "config", "hlslpp.yaml", "path to the configuration file")

	f := rootCmd.Flags()
	f.StringArrayVarP(&includeDirs, "include", "I", nil, "add an include search directory")
	f.StringArrayVarP(&defines, "define", "D", nil, "define a macro as NAME or NAME=VALUE")
	f.StringVar(&shaderModel, "shader-model", "", "target shader model (5_0 .. 6_7)")
	f.StringVar(&stage, "stage", "", "target pipeline stage (vertex, pixel, compute, ...)")
	f.StringVar(&opaqueMode, "opaque", "", "non-HLSL content handling: pass, omit or force")
	f.BoolVar(&keepComments, "keep-comments", false, "retain comments in the output")
	f.BoolVar(&lineMarkers, "line-markers", false, "emit #line directives around includes")
	f.StringVarP(&outputPath, "output", "o", "", "output file (single input only, default stdout)")
	f.StringVar(&outputDir, "output-dir", "", "write one .i file per input into this directory")
	f.BoolVarP(&watchMode, "watch", "w", false, "rerun when an input or include changes")

	rootCmd.AddCommand(versionCmd)
}

// buildOptions merges the config file with command-line overrides.
func buildOptions(cmd *cobra.Command) (*config.Config, hlslpp.Options, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, hlslpp.Options{}, err
	}

	if cmd.Flags().Changed("shader-model") {
		cfg.ShaderModel = shaderModel
	}
	if cmd.Flags().Changed("stage") {
		cfg.Stage = stage
	}
	if cmd.Flags().Changed("opaque") {
		cfg.Opaque = opaqueMode
	}
	if cmd.Flags().Changed("keep-comments") {
		cfg.KeepComments = keepComments
	}
	if cmd.Flags().Changed("line-markers") {
		cfg.LineMarkers = lineMarkers
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	cfg.IncludeDirs = append(cfg.IncludeDirs, includeDirs...)

	if cfg.Defines == nil {
		cfg.Defines = make(map[string]string)
	}
	for _, def := range defines {
		name, value := splitDefine(def)
		if name == "" {
			return nil, hlslpp.Options{}, fmt.Errorf("invalid define %q", def)
		}
		cfg.Defines[name] = value
	}

	opts, err := cfg.Options()
	if err != nil {
		return nil, hlslpp.Options{}, err
	}
	return cfg, opts, nil
}

// splitDefine parses NAME or NAME=VALUE; a bare NAME defines it as 1.
func splitDefine(def string) (name, value string) {
	if i := strings.IndexByte(def, '='); i >= 0 {
		return def[:i], def[i+1:]
	}
	return def, "1"
}

func run(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	if outputPath != "" && len(args) > 1 {
		return fmt.Errorf("-o takes a single input file, got %d", len(args))
	}

	if watchMode {
		return watch(cmd.Context(), cfg, opts, args)
	}
	return processAll(cfg, opts, args)
}

// processAll preprocesses every input, continuing past per-file errors.
func processAll(cfg *config.Config, opts hlslpp.Options, inputs []string) error {
	var failed int
	for _, input := range inputs {
		if err := processOne(cfg, opts, input); err != nil {
			logger.Error("preprocess failed", zap.String("file", input), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

func processOne(cfg *config.Config, opts hlslpp.Options, input string) error {
	logger.Debug("preprocessing",
		zap.String("file", input),
		zap.String("profile", opts.Target.Profile()))

	out, err := hlslpp.PreprocessFile(input, opts)
	if err != nil {
		return err
	}

	switch {
	case outputPath != "":
		return os.WriteFile(outputPath, []byte(out), 0o644)
	case cfg.OutputDir != "":
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".i"
		return os.WriteFile(filepath.Join(cfg.OutputDir, name), []byte(out), 0o644)
	default:
		_, err := os.Stdout.WriteString(out)
		return err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
