package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refgraph/refgraph/internal/config"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"fetch", "render", "explore", "serve", "leaderboard", "communities", "timeline", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "no-cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestConfigNoCache(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	for _, k := range []string{config.EnvBaseURL, config.EnvTimeout, config.EnvCache} {
		t.Setenv(k, "")
	}
	t.Chdir(tmp)

	c := New(io.Discard, LogInfo)
	c.noCache = true
	cfg, err := c.config()
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}
	if cfg.Cache.Backend != config.CacheNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
	again, _ := c.config()
	if again != cfg {
		t.Error("config() should be loaded once")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	for _, k := range []string{config.EnvBaseURL, config.EnvTimeout, config.EnvCache} {
		t.Setenv(k, "")
	}
	t.Chdir(tmp)

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	path := filepath.Join(tmp, "refgraph", "config.toml")
	if _, err := config.Load(path); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	out.Reset()
	root = New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out.String(), "base_url") {
		t.Errorf("config show output missing base_url:\n%s", out.String())
	}
}
