package utils

import "fmt"

// RunSelfTests exercises the containers defined in this package for the
// CLI's `-test` flag; the scope logic has its own scope.RunSelfTests. It
// returns a descriptive error on the first failure.
func RunSelfTests() error {
	if err := testVectorGrowth(); err != nil {
		return err
	}
	if err := testAssocListNewestWins(); err != nil {
		return err
	}
	return nil
}

func testVectorGrowth() error {
	v := NewVector[int]()
	const n = 64
	for i := 0; i < n; i++ {
		v.Push(i)
	}
	if v.Len() != n {
		return fmt.Errorf("vector: expected len %d, got %d", n, v.Len())
	}
	for i := 0; i < n; i++ {
		if v.At(i) != i {
			return fmt.Errorf("vector: expected element %d at index %d, got %d", i, i, v.At(i))
		}
	}
	return nil
}

func testAssocListNewestWins() error {
	a := NewAssocList[string, int]()
	a.Put("x", 1)
	a.Put("y", 2)
	a.Put("x", 3)

	if got, ok := a.Get("x"); !ok || got != 3 {
		return fmt.Errorf("assoclist: expected newest binding 3 for %q, got %d (ok=%v)", "x", got, ok)
	}
	if got, ok := a.Get("y"); !ok || got != 2 {
		return fmt.Errorf("assoclist: expected binding 2 for %q, got %d (ok=%v)", "y", got, ok)
	}
	if _, ok := a.Get("z"); ok {
		return fmt.Errorf("assoclist: expected no binding for %q", "z")
	}
	if a.Len() != 3 {
		return fmt.Errorf("assoclist: expected 3 total puts, got %d", a.Len())
	}
	return nil
}
