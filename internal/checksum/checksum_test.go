package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestSumJSONStableForEqualValues(t *testing.T) {
	type rec struct {
		ID   string `json:"id"`
		Tags []string
	}
	a, err := SumJSON(rec{ID: "x", Tags: []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := SumJSON(rec{ID: "x", Tags: []string{"a"}})
	c, _ := SumJSON(rec{ID: "y", Tags: []string{"a"}})
	if a != b {
		t.Error("equal values should share a checksum")
	}
	if a == c {
		t.Error("different values should not share a checksum")
	}
	if _, err := SumJSON(func() {}); err == nil {
		t.Error("expected marshal error")
	}
}
