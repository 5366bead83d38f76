package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chempredd/internal/descriptor"
	"chempredd/internal/predictor"
	"chempredd/internal/registry"
	"chempredd/internal/sparse"
	"chempredd/pkg/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	modelsDir string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "chempredctl",
		Short:         "One-shot prediction and model inspection for chempredd model directories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.modelsDir, "models-dir", "~/models/chem", "directory of model subdirectories")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	root.AddCommand(newModelsCmd(opts))
	root.AddCommand(newPredictCmd(opts))
	return root
}

func (o *rootOptions) logger() zerolog.Logger {
	lvl := zerolog.WarnLevel
	if o.verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List model directories and their hyperparameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadDir(opts.modelsDir)
			if err != nil {
				return err
			}
			if len(reg) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no models found")
				return nil
			}
			for _, m := range reg {
				h, err := predictor.NewModel(m.ID, m.Path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(broken: %v)\n", m.ID, err)
					continue
				}
				c, err := h.Conf()
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(bad conf: %v)\n", m.ID, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tclass=%d regr=%d fold=%d transform=%s\n",
					m.ID, c.ClassOutputSize, c.RegrOutputSize, c.FoldInputs, c.InputTransform)
			}
			return nil
		},
	}
}

type predictOptions struct {
	model          string
	input          string
	outDir         string
	keyFile        string
	parametersFile string
	toolBinary     string
	batchSize      int
}

func newPredictCmd(root *rootOptions) *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a T2 structure file through a model and write cls_pred.npy / reg_pred.npy",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger()
			reg, err := registry.LoadDir(root.modelsDir)
			if err != nil {
				return err
			}
			provider, err := descriptor.NewToolProvider(descriptor.ToolConfig{
				Binary:         opts.toolBinary,
				ParametersFile: opts.parametersFile,
				KeyFile:        opts.keyFile,
			}, log)
			if err != nil {
				return err
			}
			sys, err := predictor.New(predictor.Config{
				Registry:  reg,
				Provider:  provider,
				BatchSize: opts.batchSize,
				Logger:    log,
			})
			if err != nil {
				return err
			}
			cls, regr, err := sys.PredictFile(cmd.Context(), opts.model, opts.input)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
				return err
			}
			if err := writeMatrixFile(filepath.Join(opts.outDir, "cls_pred.npy"), cls); err != nil {
				return err
			}
			if err := writeMatrixFile(filepath.Join(opts.outDir, "reg_pred.npy"), regr); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d) and %s (%dx%d)\n",
				filepath.Join(opts.outDir, "cls_pred.npy"), cls.Rows, cls.Cols,
				filepath.Join(opts.outDir, "reg_pred.npy"), regr.Rows, regr.Cols)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.model, "model", "", "model id (directory name)")
	cmd.Flags().StringVar(&opts.input, "input", "", "T2 structure file (csv with input_compound_id,smiles)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "out", "directory for prediction outputs")
	cmd.Flags().StringVar(&opts.keyFile, "key-file", "", "encryption key json for the descriptor bit shuffle")
	cmd.Flags().StringVar(&opts.parametersFile, "parameters-file", "", "preparation parameters json")
	cmd.Flags().StringVar(&opts.toolBinary, "tool", "tuner", "descriptor tool executable")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "rows per prediction batch (0=default)")
	for _, f := range []string{"model", "input", "key-file", "parameters-file"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func writeMatrixFile(path string, m types.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sparse.WriteMatrix(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
