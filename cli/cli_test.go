package cli

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/exascience/dsort"
	"github.com/exascience/dsort/floatio"
	"github.com/exascience/dsort/sort"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	app := NewApp()
	app.Writer = &logs
	app.ErrWriter = &logs
	err := app.RunContext(ctx, append([]string{"dsort"}, args...))
	return logs.String(), err
}

func TestGenAndLocal(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.bin")
	output := filepath.Join(dir, "out.bin")
	if _, err := run(t, context.Background(), "gen", "--count", "5000", "--seed", "3", "--output", input); err != nil {
		t.Fatal(err)
	}
	logs, err := run(t, context.Background(), "local", "--workers", "3", "--input", input, "--output", output, "--verify")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs, "sorted 5000 values") || !strings.Contains(logs, "verified 5000 values") {
		t.Errorf("unexpected log output:\n%s", logs)
	}
	in, err := floatio.ReadFile(input, floatio.Binary)
	if err != nil {
		t.Fatal(err)
	}
	out, err := floatio.ReadFile(output, floatio.Binary)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5000 || !sort.Float64sAreSorted(out) {
		t.Fatalf("output of %d values is not sorted", len(out))
	}
	if floats.Min(in) != out[0] || floats.Max(in) != out[len(out)-1] {
		t.Errorf("output ranges from %v to %v, input from %v to %v", out[0], out[len(out)-1], floats.Min(in), floats.Max(in))
	}
}

func TestLocalText(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(input, []byte("3.5\n-1\n0\n-0\n2.25\n-2.25\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, context.Background(), "local", "--workers", "2", "--format", "text", "--input", input, "--output", output); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if want := "-2.25\n-1\n-0\n0\n2.25\n3.5\n"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLocalErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, context.Background(), "local", "--output", filepath.Join(dir, "out")); err == nil {
		t.Error("local without --input succeeded")
	}
	if _, err := run(t, context.Background(), "local", "--input", filepath.Join(dir, "missing"), "--output", filepath.Join(dir, "out")); err == nil {
		t.Error("local with a missing input succeeded")
	}
	if _, err := run(t, context.Background(), "gen", "--output", filepath.Join(dir, "out"), "--format", "csv"); err == nil {
		t.Error("gen with an unknown format succeeded")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

func TestWorkers(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")
	values := generate(2000, 11)
	if err := floatio.WriteFile(input, floatio.Text, values); err != nil {
		t.Fatal(err)
	}
	const workers = 3
	addrs := make([]string, workers)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("%q", freeAddr(t))
	}
	cfg := filepath.Join(dir, "dsort.toml")
	content := fmt.Sprintf(`
[cluster]
workers = [%s]
dialTimeout = "10s"

[input]
path = %q
format = "text"

[output]
path = %q
format = "text"
verify = true
`, strings.Join(addrs, ", "), input, output)
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < workers; rank++ {
		rank := rank
		g.Go(func() error {
			_, err := run(t, ctx, "worker", "--config", cfg, "--rank", fmt.Sprint(rank))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	out, err := floatio.ReadFile(output, floatio.Text)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(values) || !sort.Float64sAreSorted(out) {
		t.Errorf("output of %d values is not a sorted copy of %d values", len(out), len(values))
	}
}

func TestWorkerMissingInputReleasesPeers(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dsort.toml")
	content := fmt.Sprintf(`
[cluster]
workers = [%q, %q]
dialTimeout = "10s"

[input]
path = %q

[output]
path = %q
`, freeAddr(t), freeAddr(t), filepath.Join(dir, "missing.bin"), filepath.Join(dir, "out.bin"))
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	peer := make(chan error, 1)
	go func() {
		_, err := run(t, ctx, "worker", "--config", cfg, "--rank", "1")
		peer <- err
	}()
	_, err := run(t, ctx, "worker", "--config", cfg, "--rank", "0")
	if err == nil || errors.Cause(err) == dsort.ErrInvalidInput {
		t.Errorf("coordinator: got %v, want the read error", err)
	}
	select {
	case err := <-peer:
		if errors.Cause(err) != dsort.ErrInvalidInput {
			t.Errorf("rank 1: got %v, want ErrInvalidInput", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("rank 1 is still waiting for the coordinator")
	}
}

func TestWorkerInvalidConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "dsort.toml")
	if err := os.WriteFile(cfg, []byte("[cluster]\nworkers = [\"127.0.0.1:1\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, context.Background(), "worker", "--config", cfg, "--rank", "0"); err == nil {
		t.Error("coordinator without input and output paths started")
	}
	if _, err := run(t, context.Background(), "worker", "--config", cfg, "--rank", "1"); err == nil {
		t.Error("worker with an out-of-range rank started")
	}
}

func TestVerify(t *testing.T) {
	if err := verify([]float64{2, 1}, []float64{1, 2}); err != nil {
		t.Error(err)
	}
	if err := verify([]float64{2, 1}, []float64{1}); err == nil {
		t.Error("accepted a short output")
	}
	if err := verify([]float64{2, 1}, []float64{2, 1}); err == nil {
		t.Error("accepted an unsorted output")
	}
	if err := verify([]float64{2, 1}, []float64{1, 3}); err == nil {
		t.Error("accepted a sorted output with a different value")
	}
	negZero := math.Copysign(0, -1)
	if err := verify([]float64{0, 0}, []float64{negZero, 0}); err == nil {
		t.Error("accepted -0 in place of +0")
	}
	if err := verify([]float64{0, negZero}, []float64{negZero, 0}); err != nil {
		t.Error(err)
	}
}

func TestGenerate(t *testing.T) {
	a, b := generate(1000, 5), generate(1000, 5)
	if !floats.Same(a, b) {
		t.Error("the same seed generated different values")
	}
	negative, zeros := 0, 0
	for _, v := range a {
		if math.Signbit(v) {
			negative++
		}
		if v == 0 {
			zeros++
		}
	}
	if negative == 0 || zeros == 0 {
		t.Errorf("generated %d negative values and %d zeros", negative, zeros)
	}
}
