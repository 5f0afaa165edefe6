/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
)

const refreshInterval = 500 * time.Millisecond

// globalView mirrors debugapi's own globalView JSON shape -- this client
// only reads the debug surface, it never touches the wire protocol.
type globalView struct {
	ID      uint32            `json:"id"`
	Type    string            `json:"type"`
	Version uint32            `json:"version"`
	Props   map[string]string `json:"props"`
}

type snapshotMsg struct {
	globals []globalView
	clients []uint32
	healthy bool
	err     error
}

type tickMsg time.Time

// model is a live pw-top/pw-dump-style view over one server's debug API:
// it polls /globals, /clients and /healthz on a fixed interval and
// re-renders, with no interactive prompts the way the teacher's
// cobra/ui.promptModel drives a question sequence -- this UI has nothing
// to ask, only something to watch.
type model struct {
	base    string
	client  *http.Client
	cursor  int
	last    snapshotMsg
	quitted bool
}

func newModel(base string) model {
	return model{base: base, client: &http.Client{Timeout: 2 * time.Second}}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetch() tea.Cmd {
	return func() tea.Msg {
		var snap snapshotMsg

		resp, err := m.client.Get(m.base + "/globals")
		if err != nil {
			return snapshotMsg{err: err}
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&snap.globals); err != nil {
			return snapshotMsg{err: err}
		}

		cresp, err := m.client.Get(m.base + "/clients")
		if err != nil {
			return snapshotMsg{err: err}
		}
		defer cresp.Body.Close()
		if err := json.NewDecoder(cresp.Body).Decode(&snap.clients); err != nil {
			return snapshotMsg{err: err}
		}

		hresp, err := m.client.Get(m.base + "/healthz")
		if err == nil {
			snap.healthy = hresp.StatusCode == http.StatusOK
			hresp.Body.Close()
		}

		return snap
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitted = true
			return m, tea.Quit
		case "down", "j":
			if m.cursor < len(m.last.globals)-1 {
				m.cursor++
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		}
	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())
	case snapshotMsg:
		m.last = msg
		if m.cursor >= len(m.last.globals) {
			m.cursor = 0
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quitted {
		return ""
	}

	title := color.New(color.FgCyan, color.Bold).Sprint("sigflow-ctl")
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", title, m.base)

	if m.last.err != nil {
		fmt.Fprintf(&b, "%s\n", color.New(color.FgRed).Sprintf("error: %s", m.last.err))
		return b.String()
	}

	status := color.New(color.FgGreen).Sprint("healthy")
	if !m.last.healthy {
		status = color.New(color.FgYellow).Sprint("degraded")
	}
	fmt.Fprintf(&b, "status: %s   clients: %d   globals: %d\n\n", status, len(m.last.clients), len(m.last.globals))

	for i, g := range m.last.globals {
		cursor := "  "
		if i == m.cursor {
			cursor = color.New(color.FgCyan).Sprint("> ")
		}
		fmt.Fprintf(&b, "%s%4d  %-40s v%d\n", cursor, g.ID, g.Type, g.Version)
	}

	if m.cursor < len(m.last.globals) {
		sel := m.last.globals[m.cursor]
		fmt.Fprintf(&b, "\n%s\n", color.New(color.Faint).Sprint("props:"))
		for k, v := range sel.Props {
			fmt.Fprintf(&b, "  %s = %s\n", k, v)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", color.New(color.Faint).Sprint("q to quit, up/down to select"))
	return b.String()
}
