package ml

import "testing"

func TestTrainTestSplitSizes(t *testing.T) {
	train, test, err := TrainTestSplit(101, 0.2, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(test) != 21 || len(train) != 80 {
		t.Fatalf("expected 80/21 split, got %d/%d", len(train), len(test))
	}
	seen := make(map[int]bool)
	for _, i := range append(append([]int(nil), train...), test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	if len(seen) != 101 {
		t.Fatalf("expected every row exactly once, got %d", len(seen))
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	a, _, _ := TrainTestSplit(50, 0.2, 7)
	b, _, _ := TrainTestSplit(50, 0.2, 7)
	c, _, _ := TrainTestSplit(50, 0.2, 8)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different splits")
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds produced identical splits")
	}
}

func TestTrainTestSplitInvalid(t *testing.T) {
	if _, _, err := TrainTestSplit(1, 0.2, 1); err == nil {
		t.Fatal("expected error for a single row")
	}
	if _, _, err := TrainTestSplit(10, 1, 1); err == nil {
		t.Fatal("expected error for ratio 1")
	}
}
