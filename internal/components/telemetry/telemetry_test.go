package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("dxnet", rec)

	scoped.ReportBroken("client.login", errors.New("bad"))
	scoped.ReportWarning("client.fetch-503", "/maimai-mobile/record/")
	scoped.ReportCount("engine.inserted-plays", 3)
	scoped.ReportDebug("cycle done", KV{Key: "fetches", Value: 7})

	broken := rec.Reports("broken", "client.login")
	require.Len(t, broken, 1)
	require.Equal(t, "dxnet: client.login", broken[0].Id)

	require.Len(t, rec.Reports("warning", ""), 1)
	require.Empty(t, rec.Reports("warning", "client.login"))

	counts := rec.Reports("count", "inserted-plays")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)

	debug := rec.Reports("debug", "cycle done")
	require.Len(t, debug, 1)
	require.Equal(t, KV{Key: "fetches", Value: 7}, debug[0].Params[0])
}

func TestSlogFormatParams(t *testing.T) {
	out := []any{"id", "x"}
	SlogAPI{}.formatParams(&out, []any{"first", KV{Key: "fetches", Value: 7}})
	require.Equal(t, []any{"id", "x", "params.0", "first", "fetches", 7}, out)
}
