package store

import (
	"errors"
	"strings"
	"testing"
)

func TestBumpZeroInitializes(t *testing.T) {
	mock, s := mustStore(t, Options{})

	status, err := s.Bump("hits", 5)
	if err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	if status != BumpOK {
		t.Errorf("status = %s, want OK", status)
	}
	if mock.has("hits") {
		value, _, _ := mock.Fetch("hits")
		if string(value) != "5" {
			t.Errorf("value = %s, want 5", value)
		}
	} else {
		t.Errorf("bump must create the key")
	}
}

func TestBumpNegativeResults(t *testing.T) {
	_, s := mustStore(t, Options{Initial: map[string][]byte{"n": []byte("-7")}})

	if _, err := s.Bump("n", 3); err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	value, err := s.GetStrict("n")
	if err != nil {
		t.Fatalf("GetStrict failed: %v", err)
	}
	if string(value) != "-4" {
		t.Errorf("value = %s, want -4", value)
	}

	if err := s.Decrement("n", 10); err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}
	value, _ = s.GetStrict("n")
	if string(value) != "-14" {
		t.Errorf("value = %s, want -14", value)
	}
}

func TestBumpNonIntegralValueUnchanged(t *testing.T) {
	_, s := mustStore(t, Options{Initial: map[string][]byte{"v": []byte("12.5")}})

	status, err := s.Bump("v", 1)
	if err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	if status != BumpValueNotIntegral {
		t.Errorf("status = %s, want ValueNotIntegral", status)
	}
	value, _ := s.GetStrict("v")
	if string(value) != "12.5" {
		t.Errorf("a failed bump must leave the value alone, got %s", value)
	}
}

func TestStrictBumpConditionNamesKey(t *testing.T) {
	_, s := mustStore(t, Options{Initial: map[string][]byte{"bad": []byte("nope")}})

	err := s.IncrementStrict("bad", 1)
	if CodeOf(err) != RetCNotIntegral {
		t.Fatalf("expected NotIntegral, got %v", err)
	}
	var cond *Condition
	if !errors.As(err, &cond) {
		t.Fatalf("expected a *Condition, got %T", err)
	}
	if !strings.Contains(cond.Msg, `"bad"`) {
		t.Errorf("the condition must name the offending key: %s", cond.Msg)
	}

	err = s.DecrementStrict("bad", 1)
	if CodeOf(err) != RetCNotIntegral {
		t.Errorf("expected NotIntegral, got %v", err)
	}
}

func TestBumpStatusStrings(t *testing.T) {
	cases := map[BumpStatus]string{
		BumpOK:                "OK",
		BumpAmountNotIntegral: "AmountNotIntegral",
		BumpValueNotIntegral:  "ValueNotIntegral",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("String(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestBumpOverflowWraps(t *testing.T) {
	_, s := mustStore(t, Options{Initial: map[string][]byte{"max": []byte("9223372036854775807")}})

	// two's complement wraparound, same as native integer addition
	if _, err := s.Bump("max", 1); err != nil {
		t.Fatalf("Bump failed: %v", err)
	}
	value, _ := s.GetStrict("max")
	if string(value) != "-9223372036854775808" {
		t.Errorf("value = %s, want int64 wraparound", value)
	}
}
