package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mtcap-allowlist/internal/allowlist"
	"github.com/muurk/mtcap-allowlist/internal/config"
	"github.com/muurk/mtcap-allowlist/internal/discovery"
	"github.com/muurk/mtcap-allowlist/internal/gateway"
	"github.com/muurk/mtcap-allowlist/internal/logging"
	"github.com/muurk/mtcap-allowlist/internal/ui"
)

// target is a gateway resolved from flags, environment and profiles
type target struct {
	host     string
	username string
	insecure bool
	profile  string // empty when the host did not come from a profile
}

// resolveTarget picks the gateway to talk to: --gateway, MTCAP_GATEWAY,
// --profile, the default profile, then mDNS discovery.
func resolveTarget() (*target, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}

	t := &target{insecure: true}

	var profile *config.Gateway
	switch {
	case gatewayHost != "":
		t.host = gatewayHost
	case env != nil && env.Gateway != "":
		t.host = env.Gateway
	case profileName != "":
		profile = registry.GetGateway(profileName)
		if profile == nil {
			host, err := findByName(registry, profileName)
			if err != nil {
				return nil, err
			}
			t.host = host
			break
		}
		t.profile = profileName
	default:
		if name, gw := registry.DefaultGateway(); gw != nil {
			profile, t.profile = gw, name
		}
	}

	if profile != nil {
		t.host = profile.Host
		t.insecure = profile.Insecure
	}

	if t.host == "" {
		if registry.Preferences == nil || !registry.Preferences.AutoDiscover {
			return nil, errors.New("no gateway given: use --gateway, MTCAP_GATEWAY or 'mtcap-cfg profile add'")
		}
		host, err := discoverHost(registry.Preferences.DiscoverTimeout)
		if err != nil {
			return nil, err
		}
		t.host = host
	}

	switch {
	case username != "":
		t.username = username
	case env != nil && env.Username != "":
		t.username = env.Username
	default:
		t.username = registry.UsernameFor(profile)
	}

	if rootCmd.PersistentFlags().Changed("insecure") {
		t.insecure = insecure
	} else if env != nil && env.Insecure != nil {
		t.insecure = *env.Insecure
	}

	return t, nil
}

// discoverHost returns the only Conduit answering on the local network
func discoverHost(timeoutSeconds int) (string, error) {
	fmt.Fprintln(os.Stderr, "No gateway specified, browsing mDNS...")

	gateways, err := discovery.Scan(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	switch len(gateways) {
	case 0:
		return "", errors.New("no gateways found. Use --gateway to specify one")
	case 1:
		fmt.Fprintf(os.Stderr, "Found gateway: %s\n\n", gateways[0])
		return gateways[0].Address(), nil
	default:
		fmt.Fprintf(os.Stderr, "Found %d gateways:\n", len(gateways))
		for i, gw := range gateways {
			fmt.Fprintf(os.Stderr, "%d. %s\n", i+1, gw)
		}
		return "", errors.New("multiple gateways found. Use --gateway or --profile to pick one")
	}
}

// findByName looks for a gateway on mDNS by hostname or serial when no
// profile carries that name
func findByName(registry *config.Registry, name string) (string, error) {
	if registry.Preferences == nil || !registry.Preferences.AutoDiscover {
		return "", fmt.Errorf("no profile named %q (see 'mtcap-cfg profile list')", name)
	}

	scanner := discovery.NewScanner()
	if secs := registry.Preferences.DiscoverTimeout; secs > 0 {
		scanner.Timeout = time.Duration(secs) * time.Second
	}

	fmt.Fprintf(os.Stderr, "No profile named %s, looking for it on mDNS...\n", name)
	gw, err := scanner.Find(context.Background(), name)
	if err != nil {
		return "", fmt.Errorf("no profile named %q: %w", name, err)
	}
	fmt.Fprintf(os.Stderr, "Found gateway: %s\n\n", gw)
	return gw.Address(), nil
}

// requestTimeout resolves --timeout and MTCAP_TIMEOUT
func requestTimeout() (time.Duration, error) {
	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil || timeout <= 0 {
			return 0, fmt.Errorf("invalid --timeout %q (want a positive duration such as 45s)", timeoutFlag)
		}
		return timeout, nil
	}
	if env != nil && env.Timeout > 0 {
		return env.Timeout, nil
	}
	return gateway.DefaultTimeout, nil
}

// resolvePassword takes the flag, then MTCAP_PASSWORD, then asks.
func resolvePassword(t *target) (string, error) {
	if password != "" {
		return password, nil
	}
	if env != nil && env.Password != "" {
		return env.Password, nil
	}
	if !ui.IsTerminal() {
		return "", fmt.Errorf("no password for %s: set %s or pass --password", t.host, config.EnvPassword)
	}
	return ui.PromptPassword(fmt.Sprintf("Password for %s@%s: ", t.username, t.host))
}

// session is a logged-in gateway connection
type session struct {
	target *target
	client *gateway.Client
}

// connect resolves the target and logs in.
func connect() (*session, error) {
	t, err := resolveTarget()
	if err != nil {
		return nil, err
	}

	timeout, err := requestTimeout()
	if err != nil {
		return nil, err
	}

	pass, err := resolvePassword(t)
	if err != nil {
		return nil, err
	}

	if retries < 0 {
		return nil, fmt.Errorf("--retries must not be negative, got %d", retries)
	}

	client := gateway.NewClient(t.host, t.insecure)
	client.SetTimeout(timeout)
	client.SetRetry(retries, gateway.DefaultRetryDelay)

	logging.Debug("Logging in",
		zap.String("host", t.host),
		zap.String("username", t.username),
		zap.Bool("insecure", t.insecure),
	)
	if err := client.Login(t.username, pass); err != nil {
		return nil, err
	}

	if t.profile != "" {
		// The file may have been edited while the password prompt was open.
		if registry, err := config.ReloadRegistry(); err == nil {
			registry.MarkUsed(t.profile)
			if err := config.SaveGlobal(); err != nil {
				logging.Warn("Failed to record profile use", zap.String("profile", t.profile), zap.Error(err))
			}
		}
	}

	return &session{target: t, client: client}, nil
}

// reconciler returns an allowlist reconciler bound to the session
func (s *session) reconciler() *allowlist.Reconciler {
	return allowlist.NewReconciler(s.client)
}

// close ends the gateway session; failures are only logged
func (s *session) close() {
	if err := s.client.Logout(); err != nil {
		logging.Warn("Logout failed", zap.String("host", s.target.host), zap.Error(err))
	}
}

// withSession connects, runs fn, and always logs out
func withSession(fn func(s *session) error) error {
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}
