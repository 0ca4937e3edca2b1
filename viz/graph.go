// ABOUTME: Graphviz renderings of the deal pipeline and company network
// ABOUTME: Builds DOT output from cached company, contact, deal and stage records
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/rs/zerolog"
)

// GraphGenerator renders graphs from a snapshot of records.
type GraphGenerator struct {
	data Snapshot
	log  zerolog.Logger
}

func NewGraphGenerator(data Snapshot, log zerolog.Logger) *GraphGenerator {
	return &GraphGenerator{data: data, log: log}
}

type buildFunc func(graph *cgraph.Graph) error

func (g *GraphGenerator) render(ctx context.Context, label string, build buildFunc) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			g.log.Warn().Err(err).Msg("error closing graphviz")
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			g.log.Warn().Err(err).Msg("error closing graph")
		}
	}()

	graph.SetLabel(label)
	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GeneratePipelineGraph links each deal stage to the deals it holds. Deals
// without a known stage hang off an unassigned node.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context) (string, error) {
	return g.render(ctx, "Deal Pipeline", func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)

		stageNodes := make(map[string]*cgraph.Node)
		for _, stage := range g.data.DealStages {
			id := stage.ID()
			if id == "" {
				continue
			}
			node, err := graph.CreateNodeByName("stage_" + id)
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(stage.String("title"))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(stageColor(stage.String("title")))
			stageNodes[id] = node
		}

		var unassigned *cgraph.Node
		for _, deal := range g.data.Deals {
			id := deal.ID()
			if id == "" {
				continue
			}
			node, err := graph.CreateNodeByName("deal_" + id)
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", deal.String(objects.DealFieldTitle), display.USD(deal.Decimal(objects.DealFieldValue))))
			node.SetShape("ellipse")

			stageNode, ok := stageNodes[deal.String(objects.DealFieldStageID)]
			if !ok {
				if unassigned == nil {
					unassigned, err = graph.CreateNodeByName("stage_" + models.Unassigned)
					if err != nil {
						return fmt.Errorf("failed to create stage node: %w", err)
					}
					unassigned.SetLabel(models.StageUnassigned)
					unassigned.SetShape("box")
					unassigned.SetStyle("dashed")
				}
				stageNode = unassigned
			}
			if _, err := graph.CreateEdgeByName("holds_"+id, stageNode, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
		return nil
	})
}

// GenerateCompanyGraph shows companies with their contacts and deals.
func (g *GraphGenerator) GenerateCompanyGraph(ctx context.Context) (string, error) {
	return g.render(ctx, "Companies", func(graph *cgraph.Graph) error {
		companyNodes := make(map[string]*cgraph.Node)
		for _, company := range g.data.Companies {
			id := company.ID()
			if id == "" {
				continue
			}
			node, err := graph.CreateNodeByName("company_" + id)
			if err != nil {
				return fmt.Errorf("failed to create company node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n(Company)", company.String("name")))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
			companyNodes[id] = node
		}

		for _, contact := range g.data.Contacts {
			companyNode, ok := companyNodes[contact.String("companyId")]
			if !ok || contact.ID() == "" {
				continue
			}
			node, err := graph.CreateNodeByName("contact_" + contact.ID())
			if err != nil {
				return fmt.Errorf("failed to create contact node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", contact.String("name"), contact.String("status")))
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")

			edge, err := graph.CreateEdgeByName("works_at_"+contact.ID(), node, companyNode)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("works at")
			edge.SetStyle("dashed")
		}

		for _, deal := range g.data.Deals {
			companyNode, ok := companyNodes[deal.String("companyId")]
			if !ok || deal.ID() == "" {
				continue
			}
			node, err := graph.CreateNodeByName("deal_" + deal.ID())
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", deal.String(objects.DealFieldTitle), display.USD(deal.Decimal(objects.DealFieldValue))))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			edge, err := graph.CreateEdgeByName("deal_with_"+deal.ID(), companyNode, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")
		}
		return nil
	})
}

func stageColor(title string) string {
	switch title {
	case models.StageWon:
		return "palegreen"
	case models.StageLost:
		return "lightpink"
	default:
		return "lightgrey"
	}
}
