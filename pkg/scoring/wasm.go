package scoring

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ProbeExport is the function a probe module must export:
//
//	score(dimension_index i32, test_index i32, max_points f64) -> f64
const ProbeExport = "score"

// WASMConfig bounds probe execution.
type WASMConfig struct {
	MemoryLimitBytes uint64
	CallTimeout      time.Duration
}

// WASMScorer delegates scoring to a WebAssembly probe module run under
// wazero. The module gets WASI with no filesystem, network or environment.
// Calls are serialized; a module instance is not safe for concurrent use.
type WASMScorer struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	module  api.Module
	score   api.Function
	timeout time.Duration
}

// LoadWASMScorer reads a probe module from disk.
func LoadWASMScorer(ctx context.Context, path string, cfg WASMConfig) (*WASMScorer, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wasm probe: read %s: %w", path, err)
	}
	return NewWASMScorer(ctx, wasm, cfg)
}

// NewWASMScorer compiles and instantiates a probe module.
func NewWASMScorer(ctx context.Context, wasm []byte, cfg WASMConfig) (*WASMScorer, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitBytes > 0 {
		// wazero counts memory in 64 KiB pages
		pages := uint32(cfg.MemoryLimitBytes / (64 * 1024))
		if pages == 0 {
			pages = 1
		}
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(pages)
	}
	if cfg.CallTimeout > 0 {
		runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasm probe: compile: %w", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("agiaef-probe"))
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasm probe: instantiate: %w", err)
	}
	fn := mod.ExportedFunction(ProbeExport)
	if fn == nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("wasm probe: module does not export %q", ProbeExport)
	}
	return &WASMScorer{runtime: r, module: mod, score: fn, timeout: cfg.CallTimeout}, nil
}

// Score implements Scorer. Out-of-range results are clamped to [0, max].
func (w *WASMScorer) Score(ctx context.Context, spec TestSpec, _ any) (float64, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	results, err := w.score.Call(ctx,
		api.EncodeI32(int32(spec.DimensionIndex)),
		api.EncodeI32(int32(spec.Index)),
		api.EncodeF64(spec.MaxPoints),
	)
	if err != nil {
		return 0, fmt.Errorf("wasm probe: %s.%s: %w", spec.Dimension, spec.Name, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("wasm probe: %s.%s returned %d values", spec.Dimension, spec.Name, len(results))
	}
	return clamp(api.DecodeF64(results[0]), 0, spec.MaxPoints), nil
}

// Close releases the runtime.
func (w *WASMScorer) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}
