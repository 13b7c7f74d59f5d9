package clock

import (
	"testing"
	"time"
)

func TestFake_AfterAdvancesAndRecords(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	c := Fake(start)

	got := <-c.After(2 * time.Second)
	if want := start.Add(2 * time.Second); !got.Equal(want) {
		t.Fatalf("After delivered %v, want %v", got, want)
	}
	c.Advance(time.Minute)
	if want := start.Add(62 * time.Second); !c.Now().Equal(want) {
		t.Errorf("Now = %v, want %v", c.Now(), want)
	}
	if w := c.Waits(); len(w) != 1 || w[0] != 2*time.Second {
		t.Errorf("Waits = %v", w)
	}
}
