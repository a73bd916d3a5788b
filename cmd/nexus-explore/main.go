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

// The nexus-explore binary walks a JSON-encoded schedule execution
// (written by "nexus -json_out=...") interactively, for inspecting a CI
// run after the fact once bubbletea's live view is long gone.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"k8s.io/klog/v2"

	"github.com/go-nexus/nexus"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if flag.NArg() != 1 {
		klog.Exitf("usage: nexus-explore <execution.json>")
	}

	exec, err := loadExecution(flag.Arg(0))
	if err != nil {
		klog.Exitf("nexus-explore: %v", err)
	}

	app := tview.NewApplication()
	tree := buildTree(exec)
	detail := tview.NewTextView().SetDynamicColors(true)
	detail.SetBorder(true).SetTitle("Errors")

	tree.SetChangedFunc(func(node *tview.TreeNode) {
		detail.SetText(detailText(node))
	})

	flex := tview.NewFlex().
		AddItem(tree, 0, 1, true).
		AddItem(detail, 0, 1, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(flex, true).Run(); err != nil {
		klog.Exitf("nexus-explore: %v", err)
	}
}

func loadExecution(path string) (nexus.ScheduleExecution, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nexus.ScheduleExecution{}, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var exec nexus.ScheduleExecution
	if err := json.Unmarshal(b, &exec); err != nil {
		return nexus.ScheduleExecution{}, fmt.Errorf("failed to parse %q as a schedule execution: %w", path, err)
	}
	return exec, nil
}

func buildTree(exec nexus.ScheduleExecution) *tview.TreeView {
	root := tview.NewTreeNode(fmt.Sprintf("schedule (%d/%d tests failed)", exec.CountFailedTests(), exec.CountTotalTests()))
	for _, e := range exec.Executions {
		instNode := tview.NewTreeNode(label(e.Instance.Declaration.Name, e.Root.IsConsideredFailing)).
			SetReference(&e.Root)
		addSectionNodes(instNode, e.Root)
		root.AddChild(instNode)
	}
	tree := tview.NewTreeView().SetRoot(root).SetCurrentNode(root)
	tree.SetBorder(true).SetTitle("Tests")
	return tree
}

func addSectionNodes(parent *tview.TreeNode, sec nexus.Section) {
	for i := range sec.Subsections {
		child := sec.Subsections[i]
		node := tview.NewTreeNode(label(child.Name, child.IsConsideredFailing)).SetReference(&child)
		addSectionNodes(node, child)
		parent.AddChild(node)
	}
}

func label(name string, failing bool) string {
	if failing {
		return "[red]" + name + " (FAILED)[-]"
	}
	return name
}

func detailText(node *tview.TreeNode) string {
	ref := node.GetReference()
	sec, ok := ref.(*nexus.Section)
	if !ok || sec == nil {
		return ""
	}
	if len(sec.Errors) == 0 {
		return "(no errors)"
	}
	out := ""
	for _, e := range sec.Errors {
		out += fmt.Sprintf("%s\n  %s: %s\n", e.Location, e.Expr, e.Expanded)
	}
	return out
}
