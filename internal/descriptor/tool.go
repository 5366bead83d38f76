package descriptor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chempredd/internal/sparse"
)

// DefaultRunName tags preparation runs in the tool's output tree.
const DefaultRunName = "mms"

const stderrTailBytes = 4096

// ToolConfig parameterizes the external descriptor tool invocation.
type ToolConfig struct {
	// Binary is the tool executable (name resolved via PATH, or a path).
	Binary string
	// ParametersFile is the preparation parameters json.
	ParametersFile string
	// KeyFile is the encryption (permutation) key json used for the bit shuffle.
	KeyFile string
	// RunName tags the output subtree. Defaults to DefaultRunName.
	RunName string
	// NumCPU passed to the tool. Defaults to 1.
	NumCPU int
	// WorkDir is where per-run output dirs are created. Defaults to os.TempDir().
	WorkDir string
	// Timeout bounds a single preparation run. Zero means context-only.
	Timeout time.Duration
}

type toolProvider struct {
	cfg ToolConfig
	log zerolog.Logger
}

// NewToolProvider returns a Provider that shells out to the descriptor tool.
// The config and key files are validated eagerly so a misconfigured deployment
// fails at startup rather than on the first request.
func NewToolProvider(cfg ToolConfig, log zerolog.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.Binary) == "" {
		return nil, ErrUnavailable("descriptor tool binary not configured")
	}
	for _, p := range []string{cfg.ParametersFile, cfg.KeyFile} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("descriptor: %s: %w", p, err)
		}
	}
	if cfg.RunName == "" {
		cfg.RunName = DefaultRunName
	}
	if cfg.NumCPU <= 0 {
		cfg.NumCPU = 1
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &toolProvider{cfg: cfg, log: log}, nil
}

func (p *toolProvider) Prepare(ctx context.Context, structureFile string) (*sparse.CSR, error) {
	if _, err := os.Stat(structureFile); err != nil {
		return nil, ErrBadInput(fmt.Sprintf("structure file: %v", err))
	}
	if _, err := exec.LookPath(p.cfg.Binary); err != nil {
		return nil, ErrUnavailable(fmt.Sprintf("descriptor tool %q not found", p.cfg.Binary))
	}

	outDir, err := os.MkdirTemp(p.cfg.WorkDir, "chempredd-prep-*")
	if err != nil {
		return nil, fmt.Errorf("descriptor: temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	args := []string{
		"prepare_prediction",
		"--structure_file", structureFile,
		"--config_file", p.cfg.ParametersFile,
		"--key_file", p.cfg.KeyFile,
		"--run_name", p.cfg.RunName,
		"--output_dir", outDir,
		"--number_cpu", strconv.Itoa(p.cfg.NumCPU),
		"--non_interactive",
	}
	cmd := exec.CommandContext(ctx, p.cfg.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	p.log.Debug().Str("binary", p.cfg.Binary).Str("structure_file", structureFile).Msg("descriptor prepare start")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrUnavailable(fmt.Sprintf("descriptor tool failed: %v: %s", err, stderrTail(&stderr)))
	}

	mat, err := sparse.ReadCSRDir(filepath.Join(outDir, p.cfg.RunName))
	if err != nil {
		return nil, ErrUnavailable(fmt.Sprintf("descriptor output unreadable: %v", err))
	}
	p.log.Info().
		Int("rows", mat.Rows).
		Int("cols", mat.Cols).
		Int("nnz", mat.NNZ()).
		Dur("dur", time.Since(start)).
		Msg("descriptor prepare done")
	return mat, nil
}

func stderrTail(buf *bytes.Buffer) string {
	b := buf.Bytes()
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(b))
}
