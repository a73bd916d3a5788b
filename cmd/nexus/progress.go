// Copyright 2016 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/go-nexus/nexus"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// instanceDoneMsg reports that one test instance finished.
type instanceDoneMsg struct {
	exec nexus.TestExecution
}

// allDoneMsg reports that the whole schedule finished.
type allDoneMsg struct{}

type progressModel struct {
	total    int
	done     int
	failed   int
	checks   int
	lastRun  string
	finished bool
}

func newProgressModel(total int) progressModel {
	return progressModel{total: total}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case instanceDoneMsg:
		m.done++
		m.checks += msg.exec.Root.ExecutedChecks
		m.lastRun = msg.exec.Instance.Declaration.Name
		if msg.exec.IsConsideredFailing() {
			m.failed++
		}
		return m, nil
	case allDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	status := passStyle.Render("ok")
	if m.failed > 0 {
		status = failStyle.Render(fmt.Sprintf("%d failed", m.failed))
	}
	return fmt.Sprintf("nexus: %d/%d tests run (%s), %s checks evaluated — last: %s\n",
		m.done, m.total, status, humanize.Comma(int64(m.checks)), m.lastRun)
}
