package pages

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cioplenu/pdf-lib/core"
)

// ObjectResolver resolves indirect references; direct objects are returned
// unchanged.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// ErrPageTreeCycle is returned when a Kids entry points back to an ancestor
var ErrPageTreeCycle = errors.New("page tree cycle")

// maxTreeDepth bounds the nesting of Pages nodes
const maxTreeDepth = 64

// inheritable lists the page attributes that Pages nodes pass to their kids
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// letter is the MediaBox used when neither the page nor an ancestor has one
var letter = [4]float64{0, 0, 612, 792}

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{
		dict:     dict,
		resolver: resolver,
	}
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// Version returns the version entry if present
func (c *Catalog) Version() string {
	name, _ := c.dict.GetName("Version")
	return string(name)
}

// Pages returns the page tree root
func (c *Catalog) Pages() (core.Dict, error) {
	pagesRef := c.dict.Get("Pages")
	if pagesRef == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}

	pagesObj, err := c.resolver.Resolve(pagesRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}

	pagesDict, ok := pagesObj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", pagesObj)
	}

	return pagesDict, nil
}

// PageTree represents the PDF page tree
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page
}

// NewPageTree creates a new page tree from the root pages dictionary
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{
		root:     root,
		resolver: resolver,
	}
}

// Count returns the number of page leaves actually reachable from the root.
// The root's /Count entry is not trusted.
func (t *PageTree) Count() (int, error) {
	pages, err := t.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}

	return pages[index], nil
}

// Pages returns all pages in document order
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages == nil {
		if err := t.loadPages(); err != nil {
			return nil, err
		}
	}
	return t.pages, nil
}

func (t *PageTree) loadPages() error {
	pages := make([]*Page, 0)
	w := &walker{resolver: t.resolver, onPath: make(map[core.IndirectRef]bool)}
	if err := w.visit(t.root, core.Dict{}, 0, &pages); err != nil {
		return fmt.Errorf("failed to traverse page tree: %w", err)
	}
	t.pages = pages
	return nil
}

type walker struct {
	resolver ObjectResolver
	onPath   map[core.IndirectRef]bool
}

// visit walks one node. inherited holds the nearest ancestor value of every
// inheritable attribute seen so far.
func (w *walker) visit(node core.Dict, inherited core.Dict, depth int, out *[]*Page) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree deeper than %d levels", maxTreeDepth)
	}

	if !isPagesNode(node) {
		*out = append(*out, NewPage(node, inherited, w.resolver))
		return nil
	}

	// own attributes override the inherited ones for every kid
	next := make(core.Dict, len(inherited)+len(inheritable))
	for k, v := range inherited {
		next[k] = v
	}
	for _, key := range inheritable {
		if v := node.Get(key); v != nil {
			next[key] = v
		}
	}

	kidsResolved, err := w.resolver.Resolve(node.Get("Kids"))
	if err != nil {
		return fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := kidsResolved.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", kidsResolved)
	}

	for i, kidObj := range kids {
		ref, isRef := kidObj.(core.IndirectRef)
		if isRef {
			if w.onPath[ref] {
				return fmt.Errorf("kid %d (%s): %w", i, ref, ErrPageTreeCycle)
			}
			w.onPath[ref] = true
		}

		kidResolved, err := w.resolver.Resolve(kidObj)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		kidDict, ok := kidResolved.(core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", kidResolved)
		}

		if err := w.visit(kidDict, next, depth+1, out); err != nil {
			return err
		}
		if isRef {
			delete(w.onPath, ref)
		}
	}

	return nil
}

// isPagesNode reports whether node is an intermediate node. A missing or
// wrong /Type falls back to the presence of /Kids.
func isPagesNode(node core.Dict) bool {
	if name, ok := node.GetName("Type"); ok {
		switch name {
		case "Pages":
			return true
		case "Page":
			return false
		}
	}
	return node.Has("Kids")
}

// Page represents a single PDF page
type Page struct {
	dict      core.Dict
	inherited core.Dict
	resolver  ObjectResolver
}

// NewPage creates a new page from a dictionary and the attributes inherited
// from its ancestors.
func NewPage(dict core.Dict, inherited core.Dict, resolver ObjectResolver) *Page {
	if inherited == nil {
		inherited = core.Dict{}
	}
	return &Page{
		dict:      dict,
		inherited: inherited,
		resolver:  resolver,
	}
}

// Dict returns the raw page dictionary
func (p *Page) Dict() core.Dict { return p.dict }

// attr returns a page attribute, falling back to the nearest ancestor
func (p *Page) attr(name string) core.Object {
	if v := p.dict.Get(name); v != nil {
		return v
	}
	return p.inherited.Get(name)
}

// MediaBox returns the page media box [x1 y1 x2 y2], normalised so that
// x1 <= x2 and y1 <= y2. A missing or malformed box yields US Letter.
func (p *Page) MediaBox() [4]float64 {
	box, err := p.getBox("MediaBox")
	if err != nil {
		return letter
	}
	return box
}

// CropBox returns the visible region: the crop box clipped to the media
// box, or the media box when the crop box is absent or empty.
func (p *Page) CropBox() [4]float64 {
	media := p.MediaBox()
	crop, err := p.getBox("CropBox")
	if err != nil {
		return media
	}
	clipped := [4]float64{
		max(crop[0], media[0]),
		max(crop[1], media[1]),
		min(crop[2], media[2]),
		min(crop[3], media[3]),
	}
	if clipped[2] <= clipped[0] || clipped[3] <= clipped[1] {
		return media
	}
	return clipped
}

func (p *Page) getBox(name string) ([4]float64, error) {
	var box [4]float64

	boxObj := p.attr(name)
	if boxObj == nil {
		return box, fmt.Errorf("%s not found", name)
	}

	boxResolved, err := p.resolver.Resolve(boxObj)
	if err != nil {
		return box, fmt.Errorf("failed to resolve %s: %w", name, err)
	}

	boxArr, ok := boxResolved.(core.Array)
	if !ok {
		return box, fmt.Errorf("invalid %s type: %T", name, boxResolved)
	}
	if len(boxArr) != 4 {
		return box, fmt.Errorf("invalid %s length: %d (expected 4)", name, len(boxArr))
	}

	for i, elem := range boxArr {
		v, err := p.resolver.Resolve(elem)
		if err != nil {
			return box, fmt.Errorf("failed to resolve %s[%d]: %w", name, i, err)
		}
		f, ok := core.Number(v)
		if !ok {
			return box, fmt.Errorf("invalid %s element type: %T", name, v)
		}
		box[i] = f
	}

	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	if box[2] == box[0] || box[3] == box[1] {
		return box, fmt.Errorf("empty %s", name)
	}
	return box, nil
}

// Resources returns the page resources dictionary. A page without resources
// (own or inherited) gets an empty dictionary.
func (p *Page) Resources() (core.Dict, error) {
	resourcesObj := p.attr("Resources")
	if resourcesObj == nil {
		return core.Dict{}, nil
	}

	resourcesResolved, err := p.resolver.Resolve(resourcesObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}

	switch v := resourcesResolved.(type) {
	case core.Dict:
		return v, nil
	case core.Null:
		return core.Dict{}, nil
	default:
		return nil, fmt.Errorf("invalid Resources type: %T", resourcesResolved)
	}
}

// Contents returns the page content streams in order
func (p *Page) Contents() ([]*core.Stream, error) {
	contentsObj := p.dict.Get("Contents")
	if contentsObj == nil {
		return nil, nil
	}

	contentsResolved, err := p.resolver.Resolve(contentsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	switch v := contentsResolved.(type) {
	case *core.Stream:
		return []*core.Stream{v}, nil
	case core.Array:
		streams := make([]*core.Stream, 0, len(v))
		for i, elem := range v {
			resolved, err := p.resolver.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
			}
			s, ok := resolved.(*core.Stream)
			if !ok {
				return nil, fmt.Errorf("invalid contents[%d] type: %T", i, resolved)
			}
			streams = append(streams, s)
		}
		return streams, nil
	case core.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", contentsResolved)
	}
}

// ContentData decodes every content stream and joins them with a newline,
// so that an operator split across two streams still parses.
func (p *Page) ContentData() ([]byte, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, s := range streams {
		data, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode contents[%d]: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// Rotate returns the page rotation normalised to 0, 90, 180 or 270.
// Values that are not a multiple of 90 are treated as 0.
func (p *Page) Rotate() int {
	rotateObj := p.attr("Rotate")
	if rotateObj == nil {
		return 0
	}
	resolved, err := p.resolver.Resolve(rotateObj)
	if err != nil {
		return 0
	}
	f, ok := core.Number(resolved)
	if !ok {
		return 0
	}
	r := int(f)
	if r%90 != 0 {
		return 0
	}
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// Width returns the width of the visible page area before rotation
func (p *Page) Width() float64 {
	box := p.CropBox()
	return box[2] - box[0]
}

// Height returns the height of the visible page area before rotation
func (p *Page) Height() float64 {
	box := p.CropBox()
	return box[3] - box[1]
}
