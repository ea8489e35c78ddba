package wake

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseResult(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want Result
	}{
		{"whole", `{"ok":true,"method":"cdp"}`, Result{OK: true, Method: "cdp"}},
		{"pretty", "{\n  \"ok\": false,\n  \"reason\": \"busy\"\n}\n", Result{Reason: "busy"}},
		{"last line", "connecting...\nfound input\n{\"ok\":false,\"reason\":\"ui_busy\"}\n\n", Result{Reason: "ui_busy"}},
		{"garbage", "boom", Result{Error: ErrParse, Stdout: "boom"}},
		{"empty", "", Result{Error: ErrParse}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseResult(tc.out))
		})
	}
}

func TestResultBusy(t *testing.T) {
	require.True(t, Result{Reason: "agent_busy"}.Busy())
	require.False(t, Result{Reason: "no_target"}.Busy())
	require.False(t, Result{OK: true, Reason: "busy"}.Busy())
	require.False(t, Result{Error: "busy"}.Busy())
}

func TestResultString(t *testing.T) {
	require.Equal(t, `{"ok":false,"reason":"busy"}`, Result{Reason: "busy"}.String())

	// Details that cannot be encoded fall back to Go syntax.
	s := Result{Error: ErrSpawn, Details: make(chan int)}.String()
	require.Contains(t, s, "Error:spawn_error")
}

func TestNewExecWaker_EmptyCommand(t *testing.T) {
	_, err := NewExecWaker("   ", "", time.Second)
	require.Error(t, err)
}

func TestExecWaker_SpawnError(t *testing.T) {
	w, err := NewExecWaker("/nonexistent/agbridge-waker --flag", "", time.Second)
	require.NoError(t, err)

	res := w.Wake(context.Background())
	require.False(t, res.OK)
	require.Equal(t, ErrSpawn, res.Error)
	require.NotEmpty(t, res.Details)
}

func TestExecWaker_ReadsStdout(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	w, err := NewExecWaker(`echo {"ok":true,"method":"echo"}`, t.TempDir(), 5*time.Second)
	require.NoError(t, err)

	res := w.Wake(context.Background())
	require.True(t, res.OK)
	require.Equal(t, "echo", res.Method)
}
