package export

import (
	"flowedit/model"
)

// flowNode is an entity or boundary port of the exported composite.
type flowNode struct {
	ID    int
	Label string
	Class string
	Port  bool
}

// flowEdge joins a producer to a consumer through a relation.
type flowEdge struct {
	From, To int
	Label    string
}

type flow struct {
	Nodes []flowNode
	Edges []flowEdge
}

// dataflow flattens the top level of root into producer to consumer edges.
// Relations joined by relation links count as one net; a boundary port's
// direction is seen from inside the composite.
func dataflow(root *model.Element) *flow {
	f := &flow{}
	index := make(map[*model.Element]int)
	add := func(e *model.Element, port bool) {
		index[e] = len(f.Nodes)
		f.Nodes = append(f.Nodes, flowNode{ID: len(f.Nodes), Label: e.Name(), Class: e.Class, Port: port})
	}
	for _, p := range root.Ports() {
		add(p, true)
	}
	for _, e := range root.Entities() {
		if !e.ClassDef {
			add(e, false)
		}
	}

	owner := func(p *model.Element) (int, bool) {
		if p.Container() == root {
			i, ok := index[p]
			return i, ok
		}
		i, ok := index[p.Container()]
		return i, ok
	}

	visited := make(map[*model.Element]bool)
	seen := make(map[flowEdge]bool)
	for _, r := range root.Relations() {
		if visited[r] {
			continue
		}
		net, ports := relationNet(r)
		for _, x := range net {
			visited[x] = true
		}
		var sources, sinks []*model.Element
		for _, p := range ports {
			produces, consumes := p.Output, p.Input
			if p.Container() == root {
				produces, consumes = p.Input, p.Output
			}
			if produces {
				sources = append(sources, p)
			}
			if consumes {
				sinks = append(sinks, p)
			}
		}
		for _, s := range sources {
			from, ok := owner(s)
			if !ok {
				continue
			}
			for _, d := range sinks {
				to, ok := owner(d)
				if !ok || s == d {
					continue
				}
				edge := flowEdge{From: from, To: to, Label: r.Name()}
				if !seen[edge] {
					seen[edge] = true
					f.Edges = append(f.Edges, edge)
				}
			}
		}
	}
	return f
}

// relationNet returns the relations reachable from r through relation
// links and the ports linked to any of them.
func relationNet(r *model.Element) ([]*model.Element, []*model.Element) {
	var (
		net, ports []*model.Element
		seen       = map[*model.Element]bool{r: true}
		queue      = []*model.Element{r}
	)
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		net = append(net, x)
		ports = append(ports, x.LinkedPorts()...)
		for _, o := range x.LinkedRelations() {
			if !seen[o] {
				seen[o] = true
				queue = append(queue, o)
			}
		}
	}
	return net, ports
}
