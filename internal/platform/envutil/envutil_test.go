package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("GB_TEST_INT", "nope")
	if got := Int("GB_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("GB_TEST_INT", " 12 ")
	if got := Int("GB_TEST_INT", 7, nil); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestBoolAndSeconds(t *testing.T) {
	t.Setenv("GB_TEST_BOOL", "off")
	if Bool("GB_TEST_BOOL", true, nil) {
		t.Fatalf("Bool: want=false")
	}
	t.Setenv("GB_TEST_SECS", "90")
	if got := Seconds("GB_TEST_SECS", time.Minute, nil); got != 90*time.Second {
		t.Fatalf("Seconds: want=90s got=%s", got)
	}
	t.Setenv("GB_TEST_SECS", "-1")
	if got := Seconds("GB_TEST_SECS", time.Minute, nil); got != time.Minute {
		t.Fatalf("Seconds: want=1m got=%s", got)
	}
}

func TestStringBlankUsesDefault(t *testing.T) {
	t.Setenv("GB_TEST_STR", "   ")
	if got := String("GB_TEST_STR", "dflt", nil); got != "dflt" {
		t.Fatalf("String: want=dflt got=%q", got)
	}
}
