package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "mtcap-allowlist") {
		t.Errorf("GetConfigDir() = %v, should contain 'mtcap-allowlist'", configDir)
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(xdg, "mtcap-allowlist"); configDir != want {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Gateways == nil {
		t.Error("NewRegistry().Gateways should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.DefaultUsername != "admin" {
		t.Errorf("DefaultUsername = %v, want admin", reg.Preferences.DefaultUsername)
	}
}

func TestRegistrySetGateway(t *testing.T) {
	reg := NewRegistry()

	reg.SetGateway("office", &Gateway{Host: "192.168.2.1", Insecure: true})
	reg.SetGateway("field", &Gateway{Host: "10.0.0.7", Username: "ops"})

	if gw := reg.GetGateway("office"); gw == nil || gw.Host != "192.168.2.1" {
		t.Fatalf("GetGateway(office) = %+v", gw)
	}

	name, gw := reg.DefaultGateway()
	if name != "office" || gw == nil {
		t.Errorf("DefaultGateway() = %q, %+v; want the first profile saved", name, gw)
	}

	names := reg.GatewayNames()
	if len(names) != 2 || names[0] != "field" || names[1] != "office" {
		t.Errorf("GatewayNames() = %v, want [field office]", names)
	}
}

func TestRegistryRemoveGateway(t *testing.T) {
	reg := NewRegistry()
	reg.SetGateway("office", &Gateway{Host: "192.168.2.1"})

	if !reg.RemoveGateway("office") {
		t.Error("RemoveGateway(office) = false, want true")
	}
	if reg.RemoveGateway("office") {
		t.Error("second RemoveGateway(office) = true, want false")
	}
	if name, _ := reg.DefaultGateway(); name != "" {
		t.Errorf("default should be cleared, got %q", name)
	}
}

func TestRegistryUsernameFor(t *testing.T) {
	reg := NewRegistry()

	if got := reg.UsernameFor(&Gateway{Username: "ops"}); got != "ops" {
		t.Errorf("UsernameFor(profile with username) = %v, want ops", got)
	}

	reg.Preferences.DefaultUsername = "lora"
	if got := reg.UsernameFor(&Gateway{}); got != "lora" {
		t.Errorf("UsernameFor(profile without username) = %v, want lora", got)
	}

	reg.Preferences = nil
	if got := reg.UsernameFor(nil); got != "admin" {
		t.Errorf("UsernameFor(nil) = %v, want admin", got)
	}
}

func TestRegistryMarkUsed(t *testing.T) {
	reg := NewRegistry()
	reg.SetGateway("office", &Gateway{Host: "192.168.2.1"})

	before := time.Now()
	reg.MarkUsed("office")
	reg.MarkUsed("missing")

	if reg.GetGateway("office").LastUsed.Before(before) {
		t.Error("LastUsed should be updated")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.SetGateway("office", &Gateway{Host: "192.168.2.1", Username: "ops", Insecure: true, Serial: "21863548"})

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# mtcap-allowlist configuration file") {
		t.Error("saved config should start with the header comment")
	}
	if strings.Contains(string(data), "password:") {
		t.Error("saved config must not contain a password field")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}

	gw := loaded.GetGateway("office")
	if gw == nil {
		t.Fatal("profile should exist in loaded registry")
	}
	if gw.Host != "192.168.2.1" || gw.Username != "ops" || !gw.Insecure || gw.Serial != "21863548" {
		t.Errorf("loaded profile = %+v", gw)
	}
	if loaded.Default != "office" {
		t.Errorf("loaded default = %q, want office", loaded.Default)
	}
}

func TestLoadRegistryFrom_Missing(t *testing.T) {
	reg, err := LoadRegistryFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Version != 1 || reg.Gateways == nil {
		t.Errorf("missing file should yield a default registry, got %+v", reg)
	}
}

func TestLoadRegistryFrom_BadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRegistryFrom(path); err == nil {
		t.Error("LoadRegistryFrom() should reject unknown versions")
	}
}

func TestLoadRegistryFrom_FillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Gateways == nil || reg.Preferences == nil {
		t.Errorf("sections should be initialised, got %+v", reg)
	}
}

// Benchmark tests

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func TestReloadRegistryAndSaveGlobal(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { globalRegistryOnce = sync.Once{} })

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	reg.SetGateway("site-a", &Gateway{Host: "10.1.0.1"})
	if err := SaveGlobal(); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	onDisk, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if onDisk.GetGateway("site-a") == nil {
		t.Fatal("SaveGlobal() should write the global registry")
	}

	// Another process edits the file behind the cached instance
	onDisk.SetGateway("lab", &Gateway{Host: "mtcap-21983422.local"})
	if err := onDisk.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	cached, _ := LoadRegistry()
	if cached.GetGateway("lab") != nil {
		t.Error("LoadRegistry() should keep returning the cached instance")
	}
	reloaded, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if reloaded.GetGateway("lab") == nil {
		t.Error("ReloadRegistry() should pick up changes made on disk")
	}
}
