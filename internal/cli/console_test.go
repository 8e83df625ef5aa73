package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/notify"
)

func TestToastRelay_PrintsInOrderBeforeReturning(t *testing.T) {
	var out, errOut bytes.Buffer
	relay := startToastRelay(&toastPrinter{out: &out, errOut: &errOut})

	notify.Success(relay, "Created")
	assert.Equal(t, "✓ Created\n", out.String())

	out.WriteString("table\n")
	notify.Info(relay, "Nothing deleted")
	notify.Error(relay, "Not found")

	relay.Close()

	assert.Equal(t, "✓ Created\ntable\n• Nothing deleted\n", out.String())
	assert.Equal(t, "✗ Not found\n", errOut.String())
	assert.Zero(t, relay.bus.Dropped())
}

func TestToastRelay_CloseStopsPrinter(t *testing.T) {
	rec := &notify.Recorder{}
	relay := startToastRelay(rec)

	for i := 0; i < 100; i++ {
		notify.Info(relay, "tick")
	}
	relay.Close()

	require.Len(t, rec.Toasts(), 100)
	assert.Zero(t, relay.bus.Dropped())

	// after Close the bus has no subscriber, so Notify returns at once
	notify.Info(relay, "late")
	assert.Len(t, rec.Toasts(), 100)
}

func TestConsoleCloseWithoutSetup(t *testing.T) {
	c, _ := newRootCommand(Streams{In: &bytes.Buffer{}, Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	assert.NotPanics(t, c.close)
}
