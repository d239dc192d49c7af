// Package realm provides an in-process JavaScript realm that looks enough like
// an automated browser's global object for masking scripts to be exercised
// without launching a browser.
//
// A fresh realm reports navigator.webdriver as true, an empty
// navigator.plugins rooted at PluginArray.prototype, an empty
// navigator.languages and no window.chrome, which is what a headless,
// automation-controlled browser typically exposes.
package realm

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

//go:embed js/host.js
var hostJS string

const (
	// DefaultTimeout bounds a single Run when ctx has no earlier deadline.
	DefaultTimeout = 5 * time.Second

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/122.0.0.0 Safari/537.36"
)

// Realm is one isolated global environment. It is not safe for concurrent use.
type Realm struct {
	vm     *goja.Runtime
	logger *zap.Logger
}

type options struct {
	logger        *zap.Logger
	userAgent     string
	noPluginTypes bool
	locked        []lockedProperty
	chrome        string
}

type lockedProperty struct {
	name  string
	value interface{}
}

// Option customizes the host environment of a new Realm.
type Option func(*options)

// WithLogger sets the logger used for script errors.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithUserAgent overrides navigator.userAgent.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithoutPluginPrototypes removes the Plugin and PluginArray globals, as on a
// host that does not expose them.
func WithoutPluginPrototypes() Option {
	return func(o *options) {
		o.noPluginTypes = true
	}
}

// WithLockedProperty defines a non-configurable, read-only own property on
// navigator, so later redefinition attempts are refused.
func WithLockedProperty(name string, value interface{}) Option {
	return func(o *options) {
		o.locked = append(o.locked, lockedProperty{name: name, value: value})
	}
}

// WithChrome assigns the result of the JS expression to window.chrome before
// any script runs.
func WithChrome(expr string) Option {
	return func(o *options) {
		o.chrome = expr
	}
}

// New builds a fresh realm. Realms never share state with each other.
func New(opts ...Option) (*Realm, error) {
	o := options{userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	vm := goja.New()
	r := &Realm{vm: vm, logger: o.logger.Named("realm")}

	ua, err := json.Marshal(o.userAgent)
	if err != nil {
		return nil, fmt.Errorf("encode user agent: %w", err)
	}
	host := strings.Replace(hostJS, "__USER_AGENT__", string(ua), 1)
	if _, err := vm.RunString(host); err != nil {
		return nil, fmt.Errorf("bootstrap host: %w", err)
	}

	if o.noPluginTypes {
		if _, err := vm.RunString("delete globalThis.Plugin; delete globalThis.PluginArray;"); err != nil {
			return nil, fmt.Errorf("remove plugin types: %w", err)
		}
	}

	if len(o.locked) > 0 {
		nav := vm.Get("navigator").ToObject(vm)
		for _, p := range o.locked {
			if err := nav.DefineDataProperty(p.name, vm.ToValue(p.value), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
				return nil, fmt.Errorf("lock navigator.%s: %w", p.name, err)
			}
		}
	}

	if o.chrome != "" {
		if _, err := vm.RunString("window.chrome = (" + o.chrome + ");"); err != nil {
			return nil, fmt.Errorf("install chrome: %w", err)
		}
	}

	return r, nil
}

// Run evaluates src as a script in the realm's global scope and returns the
// raw completion value, so callers can tell undefined apart from null.
func (r *Realm) Run(ctx context.Context, src string) (goja.Value, error) {
	return r.guard(ctx, func() (goja.Value, error) {
		return r.vm.RunString(src)
	})
}

// Call evaluates fn, which must be a function expression, and invokes it with
// no arguments and the global object as this.
func (r *Realm) Call(ctx context.Context, fn string) (goja.Value, error) {
	return r.guard(ctx, func() (goja.Value, error) {
		v, err := r.vm.RunString("(" + fn + ")")
		if err != nil {
			return nil, err
		}
		call, ok := goja.AssertFunction(v)
		if !ok {
			return nil, errors.New("expression is not a function")
		}
		return call(r.vm.GlobalObject())
	})
}

// Eval evaluates expr and exports the result to a Go value.
func (r *Realm) Eval(ctx context.Context, expr string) (interface{}, error) {
	v, err := r.Run(ctx, expr)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

func (r *Realm) guard(ctx context.Context, fn func() (goja.Value, error)) (goja.Value, error) {
	// An earlier ctx deadline is enforced through ctx.Done alone.
	var timer *time.Timer
	var expired <-chan time.Time
	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > DefaultTimeout {
		timer = time.NewTimer(DefaultTimeout)
		expired = timer.C
	}

	r.vm.ClearInterrupt()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-expired:
			r.vm.Interrupt(fmt.Sprintf("execution timeout exceeded (%v)", DefaultTimeout))
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err().Error())
		case <-done:
		}
	}()

	v, err := fn()
	close(done)
	<-stopped
	if timer != nil {
		timer.Stop()
	}

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("script interrupted: %w", ctx.Err())
			}
			return nil, fmt.Errorf("script interrupted: %w", err)
		}
		var exc *goja.Exception
		if errors.As(err, &exc) {
			r.logger.Debug("script threw", zap.String("error", exc.Error()))
			return nil, fmt.Errorf("script exception: %s", exc.Error())
		}
		return nil, fmt.Errorf("script error: %w", err)
	}
	return v, nil
}
