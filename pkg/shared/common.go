package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/remedy/pkg/shared/config"
)

const (
	PluginTypeScanner string = "scanner"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "REMEDY",
	MagicCookieValue: "5d0c3a7e1f4b48a6b2e9c07d1a3f6e84c2b95d17",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeScanner: &ScannerPlugin{},
}

// PluginHandle is a running plugin process and the dispensed implementation.
type PluginHandle struct {
	client *plugin.Client
	Raw    interface{}
}

// Kill stops the plugin process.
func (h *PluginHandle) Kill() {
	if h != nil && h.client != nil {
		h.client.Kill()
	}
}

// StartPlugin launches the named plugin from the plugins folder and dispenses
// pluginType. Each plugin lives in its own folder, next to a VERSION file.
// The caller must Kill the returned handle.
func StartPlugin(cfg *config.Config, logger hclog.Logger, pluginType, pluginName string) (*PluginHandle, error) {
	pluginPath := filepath.Join(config.GetRemedyPluginsHome(cfg), pluginName, pluginName)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          PluginMap,
		Cmd:              exec.Command(pluginPath),
		Logger:           logger,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to start plugin %q: %w", pluginName, err)
	}

	raw, err := rpcClient.Dispense(pluginType)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense %s from plugin %q: %w", pluginType, pluginName, err)
	}

	return &PluginHandle{client: client, Raw: raw}, nil
}

// IsInList reports whether target is one of list.
func IsInList(target string, list []string) bool {
	return slices.Contains(list, target)
}
