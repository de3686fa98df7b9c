package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/linecard/hellocdk/internal/util"
	"github.com/linecard/hellocdk/pkg/convention/website"
	"github.com/linecard/hellocdk/pkg/engine/direct"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/golang-module/carbon/v2"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D7875F"))
	missingStyle = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Plan lists nodes in provisioning order with what each waits on.
func Plan(g *topology.Graph) string {
	t := newTable("#", "Node", "Kind", "Depends on", "Notes")

	for i, id := range g.Order() {
		node, _ := g.Node(id)
		t.Row(
			fmt.Sprint(i+1),
			id,
			string(node.Kind()),
			strings.Join(g.Dependencies(id), ", "),
			notes(node),
		)
	}

	return t.Render()
}

func notes(node topology.Node) string {
	switch n := node.(type) {
	case topology.ComputeUnit:
		for _, statement := range n.Permissions {
			if statement.Wildcard() {
				return warningStyle.Render("wildcard grant: " + strings.Join(statement.Actions, ",") + " on " + strings.Join(statement.Resources, ","))
			}
		}
		return n.Runtime
	case topology.ApiRoute:
		return n.Key() + " -> " + n.Target
	case topology.StorageBucket:
		if n.PublicRead {
			return warningStyle.Render("public read")
		}
	case topology.DeploymentStep:
		return n.Source
	}
	return ""
}

func Outputs(outputs []direct.Output) string {
	t := newTable("Node", "Output", "Value")
	for _, o := range outputs {
		t.Row(o.Node, o.Key, o.Value)
	}
	return t.Render()
}

func SyncPlan(step topology.DeploymentStep, plan website.Plan) string {
	if plan.Empty() {
		return fmt.Sprintf("%s: %d objects up to date", step.ID(), plan.Unchanged)
	}

	t := newTable("Action", "Key")
	for _, file := range plan.Upload {
		t.Row("upload", file.Key)
	}
	for _, key := range plan.Delete {
		t.Row("delete", key)
	}

	return t.Render()
}

type StatusRow struct {
	Node     string
	Kind     topology.Kind
	Physical string
	Revision string
	Updated  string
}

func Status(rows []StatusRow) string {
	t := newTable("Node", "Kind", "Deployed", "Sha", "Updated")
	for _, r := range rows {
		physical := r.Physical
		if physical == "" {
			physical = missingStyle.Render("not deployed")
		}
		t.Row(r.Node, string(r.Kind), physical, util.UnsafeSlice(r.Revision, 0, 8), r.Updated)
	}
	return t.Render()
}

// Since humanizes a timestamp as reported by the Lambda API.
func Since(timestamp string) string {
	if timestamp == "" {
		return ""
	}
	return carbon.Parse(timestamp).DiffForHumans()
}

func SinceTime(t time.Time) string {
	return carbon.CreateFromStdTime(t).DiffForHumans()
}
