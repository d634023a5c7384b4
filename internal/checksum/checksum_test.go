package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("plans"))
	b := Sum([]byte("plans"))
	if a != b || len(a) != 64 {
		t.Errorf("Sum = %q / %q", a, b)
	}
	if Sum([]byte("other")) == a {
		t.Error("different input produced same digest")
	}
}

func TestRevision_EmptyIsBlank(t *testing.T) {
	if Revision(nil) != "" || Revision([]byte{}) != "" {
		t.Error("empty payload should have empty revision")
	}
	if Revision([]byte("[]")) != Sum([]byte("[]")) {
		t.Error("non-empty revision should equal Sum")
	}
}
