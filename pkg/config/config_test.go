package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestDecodeExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "casedesk")
	s := sample{Port: 1}
	if err := Decode([]byte("name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "casedesk" || s.Port != 1 {
		t.Errorf("got %+v", s)
	}
}

func TestDecodeValidates(t *testing.T) {
	s := sample{}
	if err := Decode([]byte("name: x\n"), &s); err == nil {
		t.Fatal("expected validation error")
	}
	if err := Decode([]byte("port: [\n"), &s); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	s := sample{Port: 8080}
	found, err := LoadOptional(filepath.Join(dir, "missing.yaml"), &s)
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	found, err = LoadOptional(path, &s)
	if err != nil || !found || s.Port != 9000 {
		t.Fatalf("found=%v err=%v port=%d", found, err, s.Port)
	}

	if err := Load(filepath.Join(dir, "missing.yaml"), &s); err == nil {
		t.Fatal("Load should fail for a missing file")
	}
}
