package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// ErrNoFunction is returned by CallFunction when the global is not a
// function.
var ErrNoFunction = errors.New("lua function not defined")

// RuntimeConfig bounds script execution.
type RuntimeConfig struct {
	// CPULimit is the instruction budget of one call. 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the allocation budget of one call in bytes. 0 means
	// unlimited.
	MemoryLimit uint64
	// Stdout receives print output in addition to the captured buffer.
	Stdout io.Writer
}

// DefaultRuntimeConfig allows 10M instructions and 50 MB per call.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		CPULimit:    10_000_000,
		MemoryLimit: 50 * 1024 * 1024,
	}
}

// Runtime wraps a golua runtime. Every call into Lua runs under the
// configured hard limits.
type Runtime struct {
	config  RuntimeConfig
	runtime *rt.Runtime
	output  *bytes.Buffer
	cleanup func()
	mu      sync.Mutex
}

// NewRuntime creates a runtime with the standard libraries loaded.
func NewRuntime(config RuntimeConfig) *Runtime {
	output := &bytes.Buffer{}
	var stdout io.Writer = output
	if config.Stdout != nil {
		stdout = io.MultiWriter(config.Stdout, output)
	}
	r := rt.New(stdout)
	return &Runtime{
		config:  config,
		runtime: r,
		output:  output,
		cleanup: lib.LoadAll(r),
	}
}

func (r *Runtime) limits() rt.RuntimeContextDef {
	return rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    r.config.CPULimit,
			Memory: r.config.MemoryLimit,
		},
	}
}

// Exec compiles and runs a chunk.
func (r *Runtime) Exec(name string, code []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	closure, err := r.runtime.CompileAndLoadLuaChunk(name, code, rt.TableValue(r.runtime.GlobalEnv()))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	r.runtime.PushContext(r.limits())
	defer r.runtime.PopContext()

	if _, err := rt.Call1(r.runtime.MainThread(), rt.FunctionValue(closure)); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// HasFunction reports whether the global name holds a function.
func (r *Runtime) HasFunction(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runtime.GlobalEnv().Get(rt.StringValue(name)).Type() == rt.FunctionType
}

// CallFunction calls the global function name.
func (r *Runtime) CallFunction(name string, args ...rt.Value) (rt.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn := r.runtime.GlobalEnv().Get(rt.StringValue(name))
	if fn.Type() != rt.FunctionType {
		return rt.NilValue, fmt.Errorf("%s: %w", name, ErrNoFunction)
	}
	r.runtime.PushContext(r.limits())
	defer r.runtime.PopContext()

	result, err := rt.Call1(r.runtime.MainThread(), fn, args...)
	if err != nil {
		return rt.NilValue, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

// SetGlobal sets a global variable.
func (r *Runtime) SetGlobal(name string, value rt.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtime.GlobalEnv().Set(rt.StringValue(name), value)
}

// GetGlobal returns a global variable.
func (r *Runtime) GetGlobal(name string) rt.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runtime.GlobalEnv().Get(rt.StringValue(name))
}

// setTableFunction registers fn in table. Arguments are passed as varargs.
func setTableFunction(table *rt.Table, name string, fn rt.GoFunctionFunc) {
	goFunc := rt.NewGoFunction(fn, name, 0, true)
	rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, goFunc)
	table.Set(rt.StringValue(name), rt.FunctionValue(goFunc))
}

// Output returns everything printed so far.
func (r *Runtime) Output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output.String()
}

// Close releases the runtime. It must not be used afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
	return nil
}
