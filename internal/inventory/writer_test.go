package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/muurk/lanprobe/internal/discovery"
)

func response(name, mac, status, owner string, ip net.IP, port int) discovery.Response {
	return discovery.Response{
		Record: discovery.Record{Name: name, MACID: mac, Status: status, OwnerIP: owner},
		Source: &net.UDPAddr{IP: ip, Port: port},
	}
}

var router = response("router", "AA:BB:CC:DD:EE:FF", "1", "192.168.1.1", net.IPv4(192, 168, 1, 20), 30303)

func TestHeaderRow(t *testing.T) {
	want := fmt.Sprintf("%-15s %-18s %-25s %-25s %-10s", "Name", "MAC ID", "Address", "In Use Address", "Status")
	assert.Equal(t, want, HeaderRow())
}

func TestFormatRow(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  string
	}{
		{
			name:  "short values are padded",
			cells: []string{"router", "AA:BB:CC:DD:EE:FF", "192.168.1.20:30303", "192.168.1.1", "1"},
			want:  fmt.Sprintf("%-15s %-18s %-25s %-25s %-10s", "router", "AA:BB:CC:DD:EE:FF", "192.168.1.20:30303", "192.168.1.1", "1"),
		},
		{
			name:  "long values are truncated",
			cells: []string{"a-very-long-device-name", "AA:BB:CC:DD:EE:FF:00:11", "x", "y", "status-too-long"},
			want:  fmt.Sprintf("%-15s %-18s %-25s %-25s %-10s", "a-very-long-dev", "AA:BB:CC:DD:EE:FF:", "x", "y", "status-too"),
		},
		{
			name:  "missing cells are blank",
			cells: []string{"only"},
			want:  fmt.Sprintf("%-15s %-18s %-25s %-25s %-10s", "only", "", "", "", ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRow(tt.cells...))
		})
	}
}

func TestFormatRow_WideCharacters(t *testing.T) {
	row := FormatRow("機器機器機器機器機器", "m", "a", "o", "s")

	// Eight wide characters fill 16 cells, so only seven fit in 15
	assert.True(t, strings.HasPrefix(row, "機器機器機器機 "), "got %q", row)
}

func TestFormatRow_IgnoresLocale(t *testing.T) {
	ambiguous := strings.Repeat("±", 20)
	want := FormatRow("名前デバイス名前デバイス", ambiguous, "", "", "")

	t.Setenv("RUNEWIDTH_EASTASIAN", "1")
	t.Setenv("LC_ALL", "ja_JP.UTF-8")
	prev := runewidth.DefaultCondition.EastAsianWidth
	runewidth.DefaultCondition.EastAsianWidth = true
	t.Cleanup(func() { runewidth.DefaultCondition.EastAsianWidth = prev })

	got := FormatRow("名前デバイス名前デバイス", ambiguous, "", "", "")
	assert.Equal(t, want, got)
	assert.Contains(t, got, strings.Repeat("±", 18)+" ")
}

func TestTableWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTableWriter(&buf)

	require.NoError(t, w.Header())
	require.NoError(t, w.Write(router))
	require.NoError(t, w.Write(response("host", "FF:FF:FF:FF:FF:FF", "0", "", net.IPv4(192, 168, 1, 21), 30303)))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, HeaderRow(), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "router "))
	assert.Contains(t, lines[1], "192.168.1.20:30303")
	assert.True(t, strings.HasPrefix(lines[2], "host "))
}

func TestTableWriter_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewTableWriter(&buf)

	require.NoError(t, w.Header())
	require.NoError(t, w.Flush())

	assert.Equal(t, HeaderRow()+"\n", buf.String())
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)

	require.NoError(t, w.Header())
	require.NoError(t, w.Write(router))
	require.NoError(t, w.Flush())

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"name":     "router",
		"mac_id":   "AA:BB:CC:DD:EE:FF",
		"address":  "192.168.1.20:30303",
		"owner_ip": "192.168.1.1",
		"status":   "1",
	}, got)
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewYAMLWriter(&buf)

	require.NoError(t, w.Header())
	require.NoError(t, w.Write(router))
	assert.Zero(t, buf.Len(), "rows should be buffered until Flush")
	require.NoError(t, w.Flush())

	var got []Row
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, NewRow(router), got[0])
	assert.Contains(t, buf.String(), "mac_id: AA:BB:CC:DD:EE:FF")
}

func TestYAMLWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	w := NewYAMLWriter(&buf)

	require.NoError(t, w.Flush())
	assert.Equal(t, "[]\n", buf.String())
}

func TestNew(t *testing.T) {
	for _, format := range append(Formats, "") {
		w, err := New(format, &bytes.Buffer{})
		require.NoError(t, err, "format %q", format)
		assert.NotNil(t, w)
	}

	_, err := New("csv", &bytes.Buffer{})
	assert.ErrorContains(t, err, `unknown output format "csv"`)
}

func TestNewRow_NilSource(t *testing.T) {
	row := NewRow(discovery.Response{Record: discovery.Record{Name: "x", Status: "1"}})
	assert.Equal(t, "", row.Address)
	assert.Equal(t, []string{"x", "", "", "", "1"}, row.Cells())
}
