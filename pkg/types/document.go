package types

import "github.com/google/uuid"

// Document types.
const (
	DocumentText  = "document"
	DocumentNotes = "notes"
)

// Document is a node in the novel's notes tree. Content is stored apart from
// the tree itself and is excluded from the novel record.
type Document struct {
	ID       uuid.UUID   `json:"id" yaml:"id"`
	Title    string      `json:"title" yaml:"title"`
	Type     string      `json:"type,omitempty" yaml:"type,omitempty"`
	Children []*Document `json:"children,omitempty" yaml:"children,omitempty"`
	Content  string      `json:"-" yaml:"content,omitempty"`
}

// NewDocument returns a document with a fresh id.
func NewDocument(title string) *Document {
	return &Document{ID: uuid.New(), Title: title, Type: DocumentText}
}

// Clone returns a deep copy of d including its children.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Children = cloneAll(d.Children, (*Document).Clone)
	return &out
}

// Walk calls fn for d and every descendant, depth first.
func (d *Document) Walk(fn func(*Document)) {
	fn(d)
	for _, c := range d.Children {
		c.Walk(fn)
	}
}

// Diagram is a free-form board of nodes and edges.
type Diagram struct {
	ID    uuid.UUID     `json:"id" yaml:"id"`
	Title string        `json:"title" yaml:"title"`
	Nodes []DiagramNode `json:"nodes" yaml:"nodes"`
	Edges []DiagramEdge `json:"edges" yaml:"edges"`
}

// DiagramNode is one box on a diagram.
type DiagramNode struct {
	ID   uuid.UUID `json:"id" yaml:"id"`
	Text string    `json:"text" yaml:"text"`
	X    float64   `json:"x" yaml:"x"`
	Y    float64   `json:"y" yaml:"y"`
}

// DiagramEdge connects two nodes.
type DiagramEdge struct {
	From  uuid.UUID `json:"from" yaml:"from"`
	To    uuid.UUID `json:"to" yaml:"to"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
}

// Clone returns a deep copy of d.
func (d *Diagram) Clone() *Diagram {
	if d == nil {
		return nil
	}
	out := *d
	out.Nodes = append([]DiagramNode(nil), d.Nodes...)
	out.Edges = append([]DiagramEdge(nil), d.Edges...)
	return &out
}

// WorldBuilding is the root of the novel's world entities. A novel has at most
// one.
type WorldBuilding struct {
	Entities []*WorldEntity `json:"entities" yaml:"entities"`
}

// WorldEntity is a place, faction, or any other element of the setting.
type WorldEntity struct {
	ID       uuid.UUID      `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Summary  string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Children []*WorldEntity `json:"children,omitempty" yaml:"children,omitempty"`
}

// Clone returns a deep copy of w.
func (w *WorldBuilding) Clone() *WorldBuilding {
	if w == nil {
		return nil
	}
	return &WorldBuilding{Entities: cloneAll(w.Entities, (*WorldEntity).Clone)}
}

// Clone returns a deep copy of e.
func (e *WorldEntity) Clone() *WorldEntity {
	if e == nil {
		return nil
	}
	out := *e
	out.Children = cloneAll(e.Children, (*WorldEntity).Clone)
	return &out
}
