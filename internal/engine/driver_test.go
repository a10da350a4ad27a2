package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"dashpress/internal/rendition"
	"dashpress/internal/scratch"
	"dashpress/internal/services"
)

type fakeEngine struct {
	encode func(ctx context.Context, inputPath, outputDir string, spec rendition.Spec, segmentSeconds int) (Result, error)
	calls  int
}

func (f *fakeEngine) Encode(ctx context.Context, inputPath, outputDir string, spec rendition.Spec, segmentSeconds int) (Result, error) {
	f.calls++
	return f.encode(ctx, inputPath, outputDir, spec, segmentSeconds)
}

func testSpace(t *testing.T, budget int64) *scratch.Space {
	t.Helper()
	manager := scratch.NewManager(filepath.Join(t.TempDir(), "scratch"), nil)
	space, err := manager.Acquire(context.Background(), budget)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	t.Cleanup(func() { _ = space.Release() })
	return space
}

func fakeResult(t *testing.T, outputDir string, spec rendition.Spec, segmentBytes int64) Result {
	t.Helper()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	track := func(stream int) Track {
		initPath := filepath.Join(outputDir, InitSegmentName(spec.ID, stream))
		segPath := filepath.Join(outputDir, fmt.Sprintf("segment_%s_%d_1.m4s", spec.ID, stream))
		for _, p := range []string{initPath, segPath} {
			if err := os.WriteFile(p, make([]byte, segmentBytes), 0o644); err != nil {
				t.Fatalf("write %s: %v", p, err)
			}
		}
		return Track{InitPath: initPath, SegmentPaths: []string{segPath}}
	}
	return Result{
		Spec:            spec,
		Video:           track(StreamVideo),
		Audio:           track(StreamAudio),
		DurationSeconds: 48,
	}
}

func testPlan(n int) []rendition.Spec {
	plan := make([]rendition.Spec, 0, n)
	for i := 0; i < n; i++ {
		plan = append(plan, rendition.Spec{ID: strconv.Itoa(i), Height: 1080 - i*240})
	}
	return plan
}

func TestDriverEncodeRunsPlanInOrder(t *testing.T) {
	space := testSpace(t, 1<<20)
	var seen []string
	eng := &fakeEngine{encode: func(_ context.Context, _, outputDir string, spec rendition.Spec, _ int) (Result, error) {
		seen = append(seen, spec.ID)
		return fakeResult(t, outputDir, spec, 16), nil
	}}

	driver := NewDriver(eng, 4, time.Minute, nil)
	results, err := driver.Encode(context.Background(), "/tmp/source.mp4", testPlan(3), space)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, id := range []string{"0", "1", "2"} {
		if seen[i] != id || results[i].Spec.ID != id {
			t.Fatalf("expected plan order preserved, saw %v", seen)
		}
	}
	if space.Used() == 0 {
		t.Fatal("expected encoded bytes charged to the ledger")
	}
}

func TestDriverEncodeEmptyPlanFails(t *testing.T) {
	space := testSpace(t, 1<<20)
	driver := NewDriver(&fakeEngine{}, 4, time.Minute, nil)
	_, err := driver.Encode(context.Background(), "/tmp/source.mp4", nil, space)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDriverEncodeMidPlanFailureIsAllOrNothing(t *testing.T) {
	space := testSpace(t, 1<<20)
	eng := &fakeEngine{encode: func(_ context.Context, _, outputDir string, spec rendition.Spec, _ int) (Result, error) {
		if spec.ID == "1" {
			return Result{Spec: spec}, errors.New("exit status 1")
		}
		return fakeResult(t, outputDir, spec, 16), nil
	}}

	driver := NewDriver(eng, 4, time.Minute, nil)
	results, err := driver.Encode(context.Background(), "/tmp/source.mp4", testPlan(4), space)
	if err == nil {
		t.Fatal("expected mid-plan failure to fail the whole encode")
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}
	if results != nil {
		t.Fatalf("expected no partial results, got %d", len(results))
	}
	if eng.calls != 2 {
		t.Fatalf("expected encoding to stop at the failing rendition, got %d calls", eng.calls)
	}
}

func TestDriverEncodeDeadlineClassifiedAsTimeout(t *testing.T) {
	space := testSpace(t, 1<<20)
	eng := &fakeEngine{encode: func(ctx context.Context, _, _ string, spec rendition.Spec, _ int) (Result, error) {
		<-ctx.Done()
		return Result{Spec: spec}, ctx.Err()
	}}

	driver := NewDriver(eng, 4, 10*time.Millisecond, nil)
	_, err := driver.Encode(context.Background(), "/tmp/source.mp4", testPlan(2), space)
	if !errors.Is(err, services.ErrTranscodeTimeout) {
		t.Fatalf("expected ErrTranscodeTimeout, got %v", err)
	}
}

func TestDriverEncodeBudgetExhaustionFails(t *testing.T) {
	space := testSpace(t, 24)
	eng := &fakeEngine{encode: func(_ context.Context, _, outputDir string, spec rendition.Spec, _ int) (Result, error) {
		return fakeResult(t, outputDir, spec, 64), nil
	}}

	driver := NewDriver(eng, 4, time.Minute, nil)
	_, err := driver.Encode(context.Background(), "/tmp/source.mp4", testPlan(1), space)
	if !errors.Is(err, services.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
	if !errors.Is(err, scratch.ErrBudgetExceeded) {
		t.Fatalf("expected budget cause preserved, got %v", err)
	}
}

func TestOutputDirInsideSpace(t *testing.T) {
	space := testSpace(t, 1<<20)
	if got, want := OutputDir(space), space.Join("encoded"); got != want {
		t.Fatalf("OutputDir = %q, want %q", got, want)
	}
}
