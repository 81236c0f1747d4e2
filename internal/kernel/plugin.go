package kernel

import (
	"context"
	"fmt"
	"sort"
)

// Manifest is a plugin's static metadata.
type Manifest struct {
	ID       string
	Priority int // ascending load order
}

// PluginContext exposes only registration APIs to a plugin's Setup, per the
// startup contract: plugins register against the kernel, nothing else.
type PluginContext struct {
	kernel *Kernel
}

func (c *PluginContext) RegisterTool(def ToolDef) error           { return c.kernel.RegisterTool(def) }
func (c *PluginContext) RegisterHook(reg HookRegistration) error  { return c.kernel.hooks.Register(reg) }
func (c *PluginContext) RegisterService(id string, svc any) error { return c.kernel.RegisterService(id, svc) }

// Plugin is the minimal host-visible plugin interface: a manifest, a setup
// hook that registers against the kernel, and optional activate/deactivate/
// shutdown lifecycle hooks.
type Plugin interface {
	Manifest() Manifest
	Setup(ctx *PluginContext) error
}

// Activatable plugins are called after all plugins have registered.
type Activatable interface {
	Activate(ctx context.Context) error
}

// Deactivatable plugins are called, in reverse load order, at shutdown.
type Deactivatable interface {
	Deactivate(ctx context.Context) error
}

// Host discovers and drives the plugin lifecycle against one Kernel.
type Host struct {
	kernel  *Kernel
	plugins []Plugin
}

// NewHost creates a plugin host bound to kernel.
func NewHost(k *Kernel) *Host { return &Host{kernel: k} }

// Add registers a plugin instance for the next Init call.
func (h *Host) Add(p Plugin) { h.plugins = append(h.plugins, p) }

// Init performs, in order: (1) sort plugins by manifest priority ascending;
// (2) call each Setup with a registration-only context; (3) call Activate on
// any plugin that defines it; (4) emit startup:after-ui-ready.
func (h *Host) Init(ctx context.Context) error {
	sort.SliceStable(h.plugins, func(i, j int) bool {
		return h.plugins[i].Manifest().Priority < h.plugins[j].Manifest().Priority
	})

	pc := &PluginContext{kernel: h.kernel}
	for _, p := range h.plugins {
		if err := p.Setup(pc); err != nil {
			return fmt.Errorf("kernel: plugin %q setup: %w", p.Manifest().ID, err)
		}
	}

	for _, p := range h.plugins {
		if a, ok := p.(Activatable); ok {
			if err := a.Activate(ctx); err != nil {
				return fmt.Errorf("kernel: plugin %q activate: %w", p.Manifest().ID, err)
			}
		}
	}

	h.kernel.MarkStarted()
	h.kernel.hooks.Dispatch(ctx, DomainLifecycle, "startup:after-ui-ready", Payload{})
	return nil
}

// Shutdown runs Deactivate in reverse load order, then fires the kernel
// "shutdown" hook.
func (h *Host) Shutdown(ctx context.Context) {
	for i := len(h.plugins) - 1; i >= 0; i-- {
		if d, ok := h.plugins[i].(Deactivatable); ok {
			_ = d.Deactivate(ctx)
		}
	}
	h.kernel.hooks.Dispatch(ctx, DomainKernel, "shutdown", Payload{})
}
