package util

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	orig := Logger.GetLevel()
	defer Logger.SetLevel(orig)

	if err := SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel(debug) error: %v", err)
	}
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", Logger.GetLevel())
	}

	if err := SetLogLevel("nonsense"); err == nil {
		t.Errorf("SetLogLevel should reject an unknown level")
	}
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("a rejected level must not change the logger, got %v", Logger.GetLevel())
	}
}

func TestContextHelpers(t *testing.T) {
	if e := WithHost("ftd1"); e.Data["host"] != "ftd1" {
		t.Errorf("WithHost data = %v", e.Data)
	}
	if e := WithOperation("addNetworkObject"); e.Data["operation"] != "addNetworkObject" {
		t.Errorf("WithOperation data = %v", e.Data)
	}
}
