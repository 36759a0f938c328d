package env

import (
	"testing"
	"time"
)

func TestStringDefault(t *testing.T) {
	if got := String("SGM_ENV_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("String() = %q", got)
	}
	t.Setenv("SGM_ENV_TEST_SET", "value")
	if got := String("SGM_ENV_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("String() = %q", got)
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("SGM_ENV_TEST_DUR", "90s")
	t.Setenv("SGM_ENV_TEST_BOOL", "true")
	t.Setenv("SGM_ENV_TEST_INT", "42")
	t.Setenv("SGM_ENV_TEST_FLOAT", "0.25")

	if d, err := Duration("SGM_ENV_TEST_DUR", time.Second); err != nil || d != 90*time.Second {
		t.Errorf("Duration() = %v, %v", d, err)
	}
	if b, err := Bool("SGM_ENV_TEST_BOOL", false); err != nil || !b {
		t.Errorf("Bool() = %v, %v", b, err)
	}
	if i, err := Int("SGM_ENV_TEST_INT", 0); err != nil || i != 42 {
		t.Errorf("Int() = %v, %v", i, err)
	}
	if f, err := Float64("SGM_ENV_TEST_FLOAT", 0); err != nil || f != 0.25 {
		t.Errorf("Float64() = %v, %v", f, err)
	}
}

func TestTypedGettersRejectGarbage(t *testing.T) {
	t.Setenv("SGM_ENV_TEST_BAD", "not-a-number")
	if _, err := Duration("SGM_ENV_TEST_BAD", 0); err == nil {
		t.Error("Duration() accepted garbage")
	}
	if _, err := Bool("SGM_ENV_TEST_BAD", false); err == nil {
		t.Error("Bool() accepted garbage")
	}
	if _, err := Int("SGM_ENV_TEST_BAD", 0); err == nil {
		t.Error("Int() accepted garbage")
	}
	if _, err := Float64("SGM_ENV_TEST_BAD", 0); err == nil {
		t.Error("Float64() accepted garbage")
	}
}
