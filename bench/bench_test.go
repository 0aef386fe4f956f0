//go:build amd64 && cgo && !windows

// wasmtime-go only links on amd64 with cgo; wasmer-go doesn't link on
// Windows. Ported from the teacher's vs/bench_fac_test.go, narrowed to the
// two engines this repository's go.mod actually wires (see DESIGN.md for
// why go-wasm3 was dropped).
package bench

import (
	"context"
	"testing"

	"github.com/bytecodealliance/wasmtime-go"
	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/skanehira/wazen"
	"github.com/skanehira/wazen/api"
)

const fibInput = 30
const fibExpected = 832040 // fib(30), 0-indexed with fib(0)=0, fib(1)=1

// TestFib ensures every engine under comparison agrees with the others
// before BenchmarkFib's numbers are trusted.
func TestFib(t *testing.T) {
	t.Run("wazen", func(t *testing.T) {
		fn, cleanup, err := newWazenFib()
		require.NoError(t, err)
		defer cleanup()

		res, err := fn(fibInput)
		require.NoError(t, err)
		require.Equal(t, int32(fibExpected), res)
	})

	t.Run("wasmtime-go", func(t *testing.T) {
		fn, err := newWasmtimeFib()
		require.NoError(t, err)

		res, err := fn(fibInput)
		require.NoError(t, err)
		require.Equal(t, int32(fibExpected), res)
	})

	t.Run("wasmer-go", func(t *testing.T) {
		fn, cleanup, err := newWasmerFib()
		require.NoError(t, err)
		defer cleanup()

		res, err := fn(fibInput)
		require.NoError(t, err)
		require.Equal(t, int32(fibExpected), res)
	})
}

// BenchmarkFib compares the ns/op of calling the same compiled module's
// exported "fib" function through this repository's interpreter, through
// wasmtime-go, and through wasmer-go.
func BenchmarkFib(b *testing.B) {
	b.Run("wazen", func(b *testing.B) {
		fn, cleanup, err := newWazenFib()
		if err != nil {
			b.Fatal(err)
		}
		defer cleanup()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := fn(fibInput); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("wasmtime-go", func(b *testing.B) {
		fn, err := newWasmtimeFib()
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := fn(fibInput); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("wasmer-go", func(b *testing.B) {
		fn, cleanup, err := newWasmerFib()
		if err != nil {
			b.Fatal(err)
		}
		defer cleanup()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := fn(fibInput); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func newWazenFib() (func(int32) (int32, error), func(), error) {
	rt := wazen.NewRuntime(nil)
	ctx := context.Background()

	compiled, err := rt.CompileModule(ctx, fibWasm())
	if err != nil {
		return nil, nil, err
	}
	mod, err := rt.InstantiateModule(ctx, compiled)
	if err != nil {
		return nil, nil, err
	}
	fib := mod.ExportedFunction("fib")

	call := func(n int32) (int32, error) {
		results, err := fib.Call(ctx, api.I32(n))
		if err != nil {
			return 0, err
		}
		return results[0].I32(), nil
	}
	return call, func() { _ = mod.Close() }, nil
}

func newWasmtimeFib() (func(int32) (int32, error), error) {
	store := wasmtime.NewStore(wasmtime.NewEngine())
	module, err := wasmtime.NewModule(store.Engine, fibWasm())
	if err != nil {
		return nil, err
	}
	instance, err := wasmtime.NewInstance(store, module, nil)
	if err != nil {
		return nil, err
	}
	run := instance.GetFunc(store, "fib")

	return func(n int32) (int32, error) {
		res, err := run.Call(store, n)
		if err != nil {
			return 0, err
		}
		return res.(int32), nil
	}, nil
}

func newWasmerFib() (func(int32) (int32, error), func(), error) {
	store := wasmer.NewStore(wasmer.NewEngine())
	module, err := wasmer.NewModule(store, fibWasm())
	if err != nil {
		return nil, nil, err
	}
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	if err != nil {
		return nil, nil, err
	}
	fn, err := instance.Exports.GetFunction("fib")
	if err != nil {
		return nil, nil, err
	}

	call := func(n int32) (int32, error) {
		res, err := fn(n)
		if err != nil {
			return 0, err
		}
		return res.(int32), nil
	}
	return call, func() { store.Close(); instance.Close() }, nil
}
