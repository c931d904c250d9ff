package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name" toml:"name"`
	Workers int           `yaml:"workers" toml:"workers"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

func (s *sample) Validate() error {
	if s.Workers < 1 {
		return errors.New("workers must be positive")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("KBHOST_TEST_NAME", "from-env")
	p := writeFile(t, "c.yaml", "name: ${KBHOST_TEST_NAME}\nworkers: 3\ntimeout: 5s\n")

	s := sample{Workers: 1}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Workers != 3 || s.Timeout != 5*time.Second {
		t.Errorf("got %+v", s)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "c.toml", "name = \"toml\"\ntimeout = \"2m\"\n")

	s := sample{Workers: 2}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "toml" || s.Workers != 2 || s.Timeout != 2*time.Minute {
		t.Errorf("got %+v", s)
	}
}

func TestLoadValidates(t *testing.T) {
	p := writeFile(t, "c.yaml", "workers: 0\n")

	s := sample{Workers: 1}
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "workers must be positive") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadParseError(t *testing.T) {
	p := writeFile(t, "c.toml", "name = \n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	s := sample{Name: "default", Workers: 1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("defaults replaced: %+v", s)
	}

	bad := sample{}
	if err := LoadOptional("", &bad); err == nil {
		t.Error("defaults should still be validated")
	}
}

func TestLoadWithDefaultsFallsBack(t *testing.T) {
	def := writeFile(t, "default.yaml", "name: fallback\nworkers: 1\n")

	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Name != "fallback" {
		t.Errorf("got %+v", s)
	}
}
