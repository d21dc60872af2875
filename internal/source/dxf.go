package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"recdiff/internal/domain"
)

// DXF group codes with a fixed meaning for every entity.
const (
	CodeType   = 0
	CodeName   = 2
	CodeHandle = 5
	CodeLayer  = 8
)

// Entity is one object of the ENTITIES section of a DXF drawing. Props holds
// the values of each group code in file order; codes such as vertex
// coordinates repeat.
type Entity struct {
	Type  string
	Props map[int][]string
	codes []int
}

// Prop returns the first value of a group code, or "".
func (e Entity) Prop(code int) string {
	if v := e.Props[code]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns every value of a group code.
func (e Entity) Values(code int) []string { return e.Props[code] }

// Layer returns the layer name (group code 8).
func (e Entity) Layer() string { return e.Prop(CodeLayer) }

// Handle returns the entity handle (group code 5).
func (e Entity) Handle() string { return e.Prop(CodeHandle) }

// Codes returns the group codes of the entity in first-seen order.
func (e Entity) Codes() []string {
	out := make([]string, len(e.codes))
	for i, c := range e.codes {
		out[i] = strconv.Itoa(c)
	}
	return out
}

func (e *Entity) add(code int, value string) {
	if e.Props == nil {
		e.Props = map[int][]string{}
	}
	if _, ok := e.Props[code]; !ok {
		e.codes = append(e.codes, code)
	}
	e.Props[code] = append(e.Props[code], value)
}

// Drawing holds the entities of an ASCII DXF file and the sorted set of
// layers they are on.
type Drawing struct {
	Entities []Entity
	Layers   []string
}

// ParseDXF reads an ASCII DXF stream: alternating group code and value
// lines. Only the ENTITIES section is kept.
func ParseDXF(r io.Reader) (*Drawing, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	d := &Drawing{}
	layers := map[string]struct{}{}
	var (
		section      string
		sectionStart bool
		current      *Entity
		line         int
	)
	flush := func() {
		if current != nil {
			d.Entities = append(d.Entities, *current)
			current = nil
		}
	}
	for sc.Scan() {
		line++
		codeText := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			break
		}
		line++
		value := strings.TrimSpace(sc.Text())
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return nil, domain.ErrValidation("dxf line %d: invalid group code %q", line-1, codeText)
		}

		switch {
		case code == CodeType && value == "SECTION":
			flush()
			sectionStart = true
		case code == CodeType && value == "ENDSEC":
			flush()
			section = ""
		case code == CodeName && sectionStart:
			section = value
			sectionStart = false
		case code == CodeType && section == "ENTITIES":
			flush()
			current = &Entity{Type: value, Props: map[int][]string{}}
		case current != nil && section == "ENTITIES":
			if code == CodeLayer {
				layers[value] = struct{}{}
			}
			current.add(code, value)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dxf: %w", err)
	}
	flush()

	d.Layers = make([]string, 0, len(layers))
	for l := range layers {
		d.Layers = append(d.Layers, l)
	}
	sort.Strings(d.Layers)
	return d, nil
}

// ReadDXF parses a DXF file.
func ReadDXF(path string) (*Drawing, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dxf: %w", err)
	}
	defer fh.Close() //nolint:errcheck
	return ParseDXF(fh)
}

// OpenDXF reads a drawing as a database with one table per entity type, in
// order of first appearance. Each record has the handle and layer followed
// by the remaining group codes in ascending order; repeated values are
// joined with commas. Handles are the detected key when they are unique.
func OpenDXF(ctx context.Context, path string) (*Database, error) {
	d, err := ReadDXF(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Database(baseName(path)), nil
}

// Database converts the drawing into tables, see OpenDXF.
func (d *Drawing) Database(name string) *Database {
	var order []string
	byType := map[string][]Entity{}
	for _, e := range d.Entities {
		if _, ok := byType[e.Type]; !ok {
			order = append(order, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], e)
	}

	db := &Database{Name: name, Tables: make([]*domain.Table, 0, len(order))}
	for _, typ := range order {
		db.Tables = append(db.Tables, entityTable(typ, byType[typ]))
	}
	return db
}

func entityTable(typ string, entities []Entity) *domain.Table {
	codeSet := map[int]struct{}{}
	for _, e := range entities {
		for c := range e.Props {
			if c != CodeHandle && c != CodeLayer {
				codeSet[c] = struct{}{}
			}
		}
	}
	codes := make([]int, 0, len(codeSet))
	for c := range codeSet {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	cols := []string{"handle", "layer"}
	for _, c := range codes {
		cols = append(cols, strconv.Itoa(c))
	}

	t := &domain.Table{Name: typ, Columns: cols, PrimaryKey: []string{}}
	handles := map[string]struct{}{}
	uniqueHandles := true
	for _, e := range entities {
		rec := domain.NewRecord("handle", e.Handle(), "layer", e.Layer())
		for _, c := range codes {
			if v, ok := e.Props[c]; ok {
				rec.Set(strconv.Itoa(c), strings.Join(v, ","))
			}
		}
		t.Records = append(t.Records, rec)

		h := e.Handle()
		if _, dup := handles[h]; dup || h == "" {
			uniqueHandles = false
		}
		handles[h] = struct{}{}
	}
	if uniqueHandles {
		t.PrimaryKey = []string{"handle"}
	}
	return t
}
