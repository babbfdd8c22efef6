package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nmwatch/config"
	"nmwatch/netstate"
)

var (
	colorSuccess = lipgloss.Color("2")
	colorWarning = lipgloss.Color("3")
	colorError   = lipgloss.Color("1")
	colorFaint   = lipgloss.Color("8")

	labelStyle  = lipgloss.NewStyle().Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(colorFaint)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorFaint).Italic(true)

	// Statuses without an entry render muted.
	statusStyles = map[netstate.Status]lipgloss.Style{
		netstate.Connected:    lipgloss.NewStyle().Foreground(colorSuccess),
		netstate.Disconnected: lipgloss.NewStyle().Foreground(colorWarning),
		netstate.Disabled:     lipgloss.NewStyle().Foreground(colorError),
	}
)

// icons holds the resolved icon name per technology; empty means hidden.
type icons struct {
	Wired    string `json:"wired"`
	Wifi     string `json:"wifi"`
	Cellular string `json:"cellular"`
	VPN      string `json:"vpn"`
}

func resolveIcons(ic config.IconsConfig, st netstate.State) icons {
	var out icons

	switch st.Wired {
	case netstate.Connected:
		out.Wired = ic.Wired.Connected
	case netstate.Disconnected:
		out.Wired = ic.Wired.Disconnected
	}

	switch st.Wifi.Status {
	case netstate.Connected:
		if n := len(ic.Wifi.Levels); n > 0 {
			out.Wifi = ic.Wifi.Levels[netstate.StrengthLevel(st.Wifi.Detail.Strength, n)]
		}
	case netstate.Disconnected:
		out.Wifi = ic.Wifi.Disconnected
	case netstate.Disabled:
		out.Wifi = ic.Wifi.Disabled
	}

	switch st.Cellular {
	case netstate.Connected:
		out.Cellular = ic.Cellular.Connected
	case netstate.Disconnected:
		out.Cellular = ic.Cellular.Disconnected
	case netstate.Disabled:
		out.Cellular = ic.Cellular.Disabled
	}

	if st.VPN.Status == netstate.Connected {
		out.VPN = ic.VPN.Connected
	}
	return out
}

// renderer writes one line per state in the configured display format.
type renderer struct {
	format string
	icons  config.IconsConfig
	enc    *json.Encoder
	w      io.Writer
}

func newRenderer(w io.Writer, cfg config.DisplayConfig) *renderer {
	return &renderer{
		format: cfg.Format,
		icons:  cfg.Icons,
		enc:    json.NewEncoder(w),
		w:      w,
	}
}

type jsonLine struct {
	State netstate.State `json:"state"`
	Icons icons          `json:"icons"`
}

func (r *renderer) write(st netstate.State) error {
	if strings.EqualFold(r.format, "json") {
		return r.enc.Encode(jsonLine{State: st, Icons: resolveIcons(r.icons, st)})
	}
	_, err := fmt.Fprintln(r.w, textLine(st))
	return err
}

func textLine(st netstate.State) string {
	wifi := segment("wifi", st.Wifi.Status)
	if st.Wifi.Status == netstate.Connected {
		d := st.Wifi.Detail
		extra := fmt.Sprintf("%s %d%%", d.SSID, d.Strength)
		if d.IP4Address != "" {
			extra += fmt.Sprintf(" %s/%d", d.IP4Address, d.IP4Prefix)
		}
		wifi += " " + detailStyle.Render(extra)
	}

	vpn := segment("vpn", st.VPN.Status)
	if st.VPN.Status == netstate.Connected {
		vpn += " " + detailStyle.Render(st.VPN.Detail.Name)
	}

	return strings.Join([]string{
		segment("wired", st.Wired),
		wifi,
		segment("cellular", st.Cellular),
		vpn,
	}, "  ")
}

func segment(label string, s netstate.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		style = mutedStyle
	}
	return labelStyle.Render(label+":") + " " + style.Render(s.String())
}
