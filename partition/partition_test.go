package partition

import (
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		n, workers     int
		counts, displs []int
	}{
		{0, 1, []int{0}, []int{0}},
		{0, 3, []int{0, 0, 0}, []int{0, 0, 0}},
		{6, 2, []int{3, 3}, []int{0, 3}},
		{7, 3, []int{3, 2, 2}, []int{0, 3, 5}},
		{2, 5, []int{1, 1, 0, 0, 0}, []int{0, 1, 2, 2, 2}},
		{17, 4, []int{5, 4, 4, 4}, []int{0, 5, 9, 13}},
	}
	for _, test := range tests {
		plan, err := New(test.n, test.workers)
		if err != nil {
			t.Fatalf("New(%d, %d): %v", test.n, test.workers, err)
		}
		if !reflect.DeepEqual(plan.Counts, test.counts) {
			t.Errorf("New(%d, %d) counts = %v, want %v", test.n, test.workers, plan.Counts, test.counts)
		}
		if !reflect.DeepEqual(plan.Displs, test.displs) {
			t.Errorf("New(%d, %d) displs = %v, want %v", test.n, test.workers, plan.Displs, test.displs)
		}
	}
}

func TestNewCompleteness(t *testing.T) {
	for n := 0; n < 200; n += 7 {
		for workers := 1; workers <= 9; workers++ {
			plan, err := New(n, workers)
			if err != nil {
				t.Fatal(err)
			}
			if err := plan.Validate(n); err != nil {
				t.Fatalf("New(%d, %d) is invalid: %v", n, workers, err)
			}
			larger := 0
			for _, c := range plan.Counts {
				if c < n/workers {
					t.Fatalf("New(%d, %d): chunk of %d is below %d", n, workers, c, n/workers)
				}
				if c > n/workers {
					larger++
				}
			}
			if larger > n%workers {
				t.Fatalf("New(%d, %d): %d larger chunks, at most %d allowed", n, workers, larger, n%workers)
			}
			if plan.Workers() != workers {
				t.Fatalf("New(%d, %d) has %d chunks", n, workers, plan.Workers())
			}
		}
	}
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	if _, err := New(-1, 2); err == nil {
		t.Error("negative size accepted")
	}
	if _, err := New(10, 0); err == nil {
		t.Error("zero workers accepted")
	}
}

func TestChunk(t *testing.T) {
	plan, _ := New(7, 3)
	var got [][2]int
	for rank := 0; rank < plan.Workers(); rank++ {
		low, high := plan.Chunk(rank)
		got = append(got, [2]int{low, high})
	}
	want := [][2]int{{0, 3}, {3, 5}, {5, 7}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("chunks = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		n    int
	}{
		{"empty", Plan{}, 0},
		{"length mismatch", Plan{Counts: []int{1, 1}, Displs: []int{0}}, 2},
		{"negative count", Plan{Counts: []int{3, -1}, Displs: []int{0, 3}}, 2},
		{"gap", Plan{Counts: []int{1, 1}, Displs: []int{0, 2}}, 2},
		{"wrong total", Plan{Counts: []int{1, 1}, Displs: []int{0, 1}}, 3},
	}
	for _, test := range tests {
		if err := test.plan.Validate(test.n); err == nil {
			t.Errorf("%s: plan accepted", test.name)
		}
	}
}
