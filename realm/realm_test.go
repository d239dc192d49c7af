package realm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"page-stealth/realm"
)

func TestNew_LooksAutomated(t *testing.T) {
	ctx := context.Background()
	r, err := realm.New(realm.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	tests := []struct {
		expr string
		want interface{}
	}{
		{"navigator.webdriver", true},
		{"navigator.plugins.length", int64(0)},
		{"navigator.languages.length", int64(0)},
		{"typeof window.chrome", "undefined"},
		{"window === globalThis", true},
		{"Object.getPrototypeOf(navigator.plugins) === PluginArray.prototype", true},
		{"Object.keys(navigator).length", int64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Eval(ctx, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_UserAgent(t *testing.T) {
	r, err := realm.New(realm.WithUserAgent(`Mozilla/5.0 "quoted"`))
	require.NoError(t, err)

	got, err := r.Eval(context.Background(), "navigator.userAgent")
	require.NoError(t, err)
	assert.Equal(t, `Mozilla/5.0 "quoted"`, got)
}

func TestNativeGettersRejectForeignReceivers(t *testing.T) {
	r, err := realm.New()
	require.NoError(t, err)

	_, err = r.Run(context.Background(), `Object.getOwnPropertyDescriptor(Navigator.prototype, "webdriver").get.call({})`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Illegal invocation")

	_, err = r.Run(context.Background(), `new Plugin()`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Illegal constructor")
}

func TestWithoutPluginPrototypes(t *testing.T) {
	r, err := realm.New(realm.WithoutPluginPrototypes())
	require.NoError(t, err)

	got, err := r.Eval(context.Background(), "typeof Plugin + ',' + typeof PluginArray")
	require.NoError(t, err)
	assert.Equal(t, "undefined,undefined", got)
}

func TestWithLockedProperty(t *testing.T) {
	ctx := context.Background()
	r, err := realm.New(realm.WithLockedProperty("webdriver", true))
	require.NoError(t, err)

	got, err := r.Eval(ctx, `Object.getOwnPropertyDescriptor(navigator, "webdriver").configurable`)
	require.NoError(t, err)
	assert.Equal(t, false, got)

	_, err = r.Run(ctx, `Object.defineProperty(navigator, "webdriver", { get: () => undefined })`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script exception")
}

func TestWithChrome(t *testing.T) {
	r, err := realm.New(realm.WithChrome(`{ app: { isInstalled: false } }`))
	require.NoError(t, err)

	got, err := r.Eval(context.Background(), "window.chrome.app.isInstalled")
	require.NoError(t, err)
	assert.Equal(t, false, got)
}

func TestCall(t *testing.T) {
	ctx := context.Background()
	r, err := realm.New()
	require.NoError(t, err)

	v, err := r.Call(ctx, `() => navigator.webdriver ? "automated" : "human"`)
	require.NoError(t, err)
	assert.Equal(t, "automated", v.String())

	_, err = r.Call(ctx, `42`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a function")
}

func TestRun_SyntaxError(t *testing.T) {
	r, err := realm.New()
	require.NoError(t, err)

	_, err = r.Run(context.Background(), `function (`)
	require.Error(t, err)
}

func TestRun_ContextDeadline(t *testing.T) {
	r, err := realm.New()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = r.Run(ctx, `while (true) {}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)

	// The realm stays usable after an interrupt.
	got, err := r.Eval(context.Background(), "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestRealmsAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, err := realm.New()
	require.NoError(t, err)
	b, err := realm.New()
	require.NoError(t, err)

	_, err = a.Run(ctx, `Object.defineProperty(navigator, "webdriver", { get: () => false }); window.marker = 1;`)
	require.NoError(t, err)

	got, err := b.Eval(ctx, "navigator.webdriver")
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = b.Eval(ctx, "typeof window.marker")
	require.NoError(t, err)
	assert.Equal(t, "undefined", got)
}
