package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestBinaryVersionDefault(t *testing.T) {
	if BinaryVersion != "dev" {
		t.Errorf("Expected BinaryVersion default 'dev', got '%s'", BinaryVersion)
	}
}

func TestModuleVersion(t *testing.T) {
	version := ModuleVersion()
	if version == "" {
		t.Error("ModuleVersion must fall back to a non-empty placeholder")
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		if version != info.Main.Version {
			t.Errorf("ModuleVersion() = '%s', expected '%s'", version, info.Main.Version)
		}
	} else if version != "(devel)" {
		t.Errorf("ModuleVersion() = '%s', expected '(devel)' fallback", version)
	}
}
