package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/version"
)

// SchemaVersion is the newest graph file layout this package reads and the
// one it writes.
const SchemaVersion = 1

// ErrUnsupportedSchema is returned when a graph file is newer than
// SchemaVersion.
var ErrUnsupportedSchema = errors.New("unsupported graph schema version")

var documentValidate = validator.New(validator.WithRequiredStructEnabled())

type document struct {
	SchemaVersion int               `json:"schemaVersion" validate:"required,min=1"`
	Generation    string            `json:"generation" validate:"required"`
	CreatedAt     time.Time         `json:"createdAt"`
	Nodes         []nodeDoc         `json:"nodes" validate:"dive"`
	Edges         []model.Edge      `json:"edges" validate:"dive"`
	Diagnostics   []diag.Diagnostic `json:"diagnostics" validate:"dive"`
}

type nodeDoc struct {
	ID          string               `json:"id" validate:"required"`
	Name        string               `json:"name" validate:"required"`
	Anchor      string               `json:"anchor"`
	Family      string               `json:"family" validate:"required"`
	Introduced  string               `json:"introducedVersion" validate:"required"`
	Deprecated  string               `json:"deprecatedVersion,omitempty"`
	Description string               `json:"description"`
	Examples    []exampleDoc         `json:"examples" validate:"dive"`
	Location    model.SourceLocation `json:"location"`
}

type exampleDoc struct {
	Dialect  string               `json:"dialect"`
	Source   string               `json:"source"`
	Location model.SourceLocation `json:"location"`
}

// Encode writes g as indented JSON. Nodes and edges are already sorted, so
// equal graphs encode to equal bytes.
func Encode(w io.Writer, g *Graph) error {
	doc := document{
		SchemaVersion: SchemaVersion,
		Generation:    g.generation,
		CreatedAt:     g.createdAt,
		Nodes:         make([]nodeDoc, 0, len(g.nodes)),
		Edges:         g.Edges(),
		Diagnostics:   g.Diagnostics(),
	}
	if doc.Edges == nil {
		doc.Edges = []model.Edge{}
	}
	if doc.Diagnostics == nil {
		doc.Diagnostics = []diag.Diagnostic{}
	}
	for _, n := range g.nodes {
		fam, err := g.catalog.Family(n.Family)
		if err != nil {
			return fmt.Errorf("encode node %s: %w", n.ID, err)
		}
		nd := nodeDoc{
			ID:          n.ID,
			Name:        n.Name,
			Anchor:      n.Anchor,
			Family:      fam.Name,
			Introduced:  n.Introduced.Name,
			Description: n.Description,
			Examples:    make([]exampleDoc, 0, len(n.Examples)),
			Location:    n.Location,
		}
		if n.Deprecated != nil {
			nd.Deprecated = n.Deprecated.Name
		}
		for _, ex := range n.Examples {
			nd.Examples = append(nd.Examples, exampleDoc(ex))
		}
		doc.Nodes = append(doc.Nodes, nd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

// Decode reads a graph written by Encode. Edges whose endpoint is missing
// are kept in Dangling rather than rejected so they can be reported.
func Decode(r io.Reader, catalog *version.Catalog) (*Graph, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (newest supported is %d)", ErrUnsupportedSchema, doc.SchemaVersion, SchemaVersion)
	}
	if err := documentValidate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}

	records := make([]*model.FeatureRecord, 0, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		rec, err := nd.record(catalog)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return Freeze(records, doc.Edges, Options{
		Generation:  doc.Generation,
		CreatedAt:   doc.CreatedAt,
		Catalog:     catalog,
		Diagnostics: doc.Diagnostics,
	})
}

func (nd nodeDoc) record(catalog *version.Catalog) (*model.FeatureRecord, error) {
	fam, err := catalog.Family(nd.Family)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", nd.ID, err)
	}
	introduced, err := fam.Version(nd.Introduced)
	if err != nil {
		return nil, fmt.Errorf("node %s: introducedVersion: %w", nd.ID, err)
	}
	rec := &model.FeatureRecord{
		ID:          nd.ID,
		Name:        nd.Name,
		Anchor:      nd.Anchor,
		Family:      fam.Key,
		Introduced:  introduced,
		Description: nd.Description,
		Location:    nd.Location,
	}
	if nd.Deprecated != "" {
		deprecated, err := fam.Version(nd.Deprecated)
		if err != nil {
			return nil, fmt.Errorf("node %s: deprecatedVersion: %w", nd.ID, err)
		}
		rec.Deprecated = &deprecated
	}
	for _, ex := range nd.Examples {
		rec.Examples = append(rec.Examples, model.CodeExample(ex))
	}
	return rec, nil
}

// WriteFile encodes g to path. The file is written to a temporary sibling
// and renamed into place, so readers never observe a partial graph.
func WriteFile(path string, g *Graph) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".graph-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp graph file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := Encode(tmp, g); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close graph file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename graph file: %w", err)
	}
	success = true
	return nil
}

// ReadFile decodes the graph stored at path.
func ReadFile(path string, catalog *version.Catalog) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()
	g, err := Decode(f, catalog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
