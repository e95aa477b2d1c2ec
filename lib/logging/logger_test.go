package logging

import "testing"

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":    DEBUG,
		"info":     INFO,
		"INFO":     INFO,
		"warn":     WARNING,
		"warning":  WARNING,
		"error":    ERROR,
		"critical": CRITICAL,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}

	if _, err := ParseLogLevel("chatty"); err == nil {
		t.Errorf("expected an error for an unknown level")
	}
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	first := GetLogger("logging-test")
	second := GetLogger("logging-test")
	if first != second {
		t.Errorf("GetLogger must hand out one instance per name")
	}
}

func TestSetGlobalLevelAppliesToExistingLoggers(t *testing.T) {
	l := GetLogger("logging-test-level").(*stashLogger)

	SetGlobalLevel(DEBUG)
	defer SetGlobalLevel(INFO)

	if l.level != DEBUG {
		t.Errorf("existing logger level = %v, want DEBUG", l.level)
	}

	// and to loggers created afterwards
	fresh := GetLogger("logging-test-fresh").(*stashLogger)
	if fresh.level != DEBUG {
		t.Errorf("fresh logger level = %v, want DEBUG", fresh.level)
	}
}
