package tui

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/lanprobe/internal/discovery"
)

func testModel() Model {
	cfg := discovery.DefaultConfig()
	cfg.Port = 4000
	return New(context.Background(), cfg)
}

func device(name string, last byte) discovery.Response {
	return discovery.Response{
		Record: discovery.Record{Name: name, MACID: "AA:BB:CC:DD:EE:FF", Status: "1", OwnerIP: "10.0.0.1"},
		Source: &net.UDPAddr{IP: net.IPv4(192, 168, 1, last), Port: 4000},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok, "Update returned %T, want Model", next)
	return model, cmd
}

func TestNew(t *testing.T) {
	m := testModel()

	assert.True(t, m.scanning)
	assert.Empty(t, m.Rows())
	assert.Contains(t, m.View(), "Probing 255.255.255.255:4000")
	assert.Contains(t, m.View(), "In Use Address")
}

func TestUpdate_ResponsesAppendRows(t *testing.T) {
	m := testModel()
	s := &session{}

	m, cmd := update(t, m, responseMsg{response: device("alpha", 10), session: s})
	assert.NotNil(t, cmd, "a response should schedule the next wait")
	m, _ = update(t, m, responseMsg{response: device("beta", 11), session: s})

	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, table.Row{"alpha", "AA:BB:CC:DD:EE:FF", "192.168.1.10:4000", "10.0.0.1", "1"}, rows[0])
	assert.Equal(t, "beta", rows[1][0])
	assert.Contains(t, m.View(), "2 so far")
}

func TestUpdate_SessionDone(t *testing.T) {
	m := testModel()

	m, _ = update(t, m, responseMsg{response: device("alpha", 10), session: &session{}})
	m, cmd := update(t, m, sessionDoneMsg{})

	assert.Nil(t, cmd)
	assert.False(t, m.scanning)
	assert.NoError(t, m.Err())
	assert.Contains(t, m.View(), "1 device(s) found")
}

func TestUpdate_SessionError(t *testing.T) {
	m := testModel()
	setupErr := &discovery.SetupError{Stage: discovery.StageSend, Err: errors.New("network is unreachable")}

	m, _ = update(t, m, sessionDoneMsg{err: setupErr})

	assert.ErrorIs(t, m.Err(), setupErr)
	assert.Contains(t, m.View(), "failed to send probe")
}

func TestUpdate_RescanIgnoredWhileScanning(t *testing.T) {
	m := testModel()

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	assert.Nil(t, cmd)
	assert.True(t, m.scanning)
}

func TestUpdate_RescanClearsRows(t *testing.T) {
	m := testModel()
	m, _ = update(t, m, responseMsg{response: device("alpha", 10), session: &session{}})
	m, _ = update(t, m, sessionDoneMsg{err: errors.New("boom")})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	assert.NotNil(t, cmd)
	assert.True(t, m.scanning)
	assert.NoError(t, m.Err())
	assert.Empty(t, m.Rows())
}

func TestUpdate_QuitCancelsSessions(t *testing.T) {
	m := testModel()

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.ErrorIs(t, m.ctx.Err(), context.Canceled)
}

func TestWaitForSession(t *testing.T) {
	responses := make(chan discovery.Response, 1)
	done := make(chan error, 1)
	s := &session{responses: responses, done: done}

	responses <- device("alpha", 10)
	msg := waitForSession(s)()
	got, ok := msg.(responseMsg)
	require.True(t, ok, "got %T, want responseMsg", msg)
	assert.Equal(t, "alpha", got.response.Record.Name)
	assert.Same(t, s, got.session)

	close(responses)
	done <- nil
	msg = waitForSession(s)()
	assert.Equal(t, sessionDoneMsg{}, msg)
}
