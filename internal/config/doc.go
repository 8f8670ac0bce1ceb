// Package config provides user configuration for mtcap-allowlist.
//
// It covers three sources:
//   - the registry, a YAML file of named gateway profiles and preferences
//   - the environment (MTCAP_GATEWAY, MTCAP_USERNAME, MTCAP_PASSWORD,
//     MTCAP_LOG_LEVEL, MTCAP_TIMEOUT, MTCAP_INSECURE), optionally seeded from
//     a .env file
//   - device manifests, YAML files declaring the devices a gateway should admit
//
// # Configuration File Location
//
// The registry is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/mtcap-allowlist/config.yaml or $HOME/.config/mtcap-allowlist/config.yaml
//   - macOS: $HOME/.config/mtcap-allowlist/config.yaml
//   - Windows: %LOCALAPPDATA%\mtcap-allowlist\config.yaml
//
// # Security
//
// IMPORTANT: This package NEVER stores gateway passwords. They come from
// MTCAP_PASSWORD or are prompted for when needed.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SetGateway("office", &config.Gateway{Host: "192.168.2.1", Insecure: true})
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
//	devices, err := config.LoadManifest("devices.yaml")
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
