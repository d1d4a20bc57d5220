package reader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/core"
	"github.com/cioplenu/pdf-lib/font"
	"github.com/cioplenu/pdf-lib/pages"
)

// DefaultCacheSize is the number of resolved objects kept per document
const DefaultCacheSize = 512

var (
	// ErrNotPDF is returned when the file has no %PDF- header
	ErrNotPDF = errors.New("not a PDF file")

	// ErrEncrypted is returned for documents with an /Encrypt dictionary
	ErrEncrypted = errors.New("encrypted documents are not supported")

	// ErrClosed is returned by a Reader after Close
	ErrClosed = errors.New("reader is closed")

	errReferenceCycle = errors.New("reference cycle")
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Option configures a Reader
type Option func(*Reader)

// WithLogger sets the logger used for recoverable problems
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCacheSize sets the object cache size; values below 1 use the default
func WithCacheSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.cacheSize = n
		}
	}
}

// Reader is an open PDF document held in memory. A Reader is meant to be
// used from one goroutine.
type Reader struct {
	path      string
	data      []byte
	xrefTable *core.XRefTable
	trailer   core.Dict
	version   PDFVersion

	cacheSize int
	objCache  *lru.Cache[int, core.Object]
	objStms   *lru.Cache[int, *core.ObjectStream]
	fonts     *lru.Cache[core.IndirectRef, *font.Font]
	resolving map[int]bool

	pageTree *pages.PageTree
	pageList []*pages.Page

	logger *zap.Logger
	closed bool
}

var _ pages.ObjectResolver = (*Reader)(nil)
var _ core.ReferenceResolver = (*Reader)(nil)

// Open reads the file at path and loads its cross-reference data
func Open(path string, opts ...Option) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(data, opts...)
	if err != nil {
		return nil, err
	}
	r.path = path
	return r, nil
}

// NewReader creates a reader over an in-memory document
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	r := &Reader{
		data:      data,
		cacheSize: DefaultCacheSize,
		logger:    zap.NewNop(),
		resolving: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	var err error
	if r.objCache, err = lru.New[int, core.Object](r.cacheSize); err != nil {
		return nil, err
	}
	if r.objStms, err = lru.New[int, *core.ObjectStream](32); err != nil {
		return nil, err
	}
	if r.fonts, err = lru.New[core.IndirectRef, *font.Font](128); err != nil {
		return nil, err
	}

	if r.version, err = parseHeader(data); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if r.xrefTable, err = core.LoadXRef(data); err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	if r.xrefTable.Repaired {
		r.logger.Debug("cross-reference table rebuilt by scanning", zap.String("path", r.path))
	}
	r.trailer = r.xrefTable.Trailer

	if r.trailer.Has("Encrypt") {
		return nil, ErrEncrypted
	}
	return r, nil
}

var headerPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// parseHeader finds the version comment in the first kilobyte
func parseHeader(data []byte) (PDFVersion, error) {
	head := data[:min(len(data), 1024)]
	m := headerPattern.FindSubmatch(head)
	if m == nil {
		if bytes.Contains(head, []byte("%PDF-")) {
			// a malformed version still marks a PDF
			return PDFVersion{Major: 1, Minor: 4}, nil
		}
		return PDFVersion{}, ErrNotPDF
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// Version returns the PDF version from the header
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// XRefTable returns the cross-reference table
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xrefTable
}

// GetObject loads an object by its number. Free and missing objects are
// null.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if obj, ok := r.objCache.Get(objNum); ok {
		return obj, nil
	}
	if r.resolving[objNum] {
		return nil, fmt.Errorf("object %d: %w", objNum, errReferenceCycle)
	}
	r.resolving[objNum] = true
	defer delete(r.resolving, objNum)

	entry, ok := r.xrefTable.Get(objNum)
	if !ok {
		return core.Null{}, nil
	}

	var obj core.Object
	var err error
	switch entry.Type {
	case core.XRefInUse:
		obj, err = r.loadAt(objNum, entry.Offset)
	case core.XRefCompressed:
		obj, err = r.loadCompressed(objNum, entry)
	default:
		return core.Null{}, nil
	}
	if err != nil {
		return nil, err
	}

	r.objCache.Add(objNum, obj)
	return obj, nil
}

func (r *Reader) loadAt(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("object %d offset %d out of range", objNum, offset)
	}
	parser := core.NewParserAt(r.data, int(offset))
	parser.SetReferenceResolver(r)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
	}
	if indObj.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indObj.Ref.Number)
	}
	return indObj.Object, nil
}

func (r *Reader) loadCompressed(objNum int, entry core.XRefEntry) (core.Object, error) {
	stm, ok := r.objStms.Get(entry.StreamObj)
	if !ok {
		obj, err := r.GetObject(entry.StreamObj)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamObj, err)
		}
		stream, isStream := obj.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is %T", entry.StreamObj, obj)
		}
		if stm, err = core.NewObjectStream(stream); err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamObj, err)
		}
		r.objStms.Add(entry.StreamObj, stm)
	}

	if num, obj, err := stm.Object(entry.Index); err == nil && num == objNum {
		return obj, nil
	}
	return stm.Find(objNum)
}

// ResolveReference resolves an indirect reference
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve resolves an object if it's an indirect reference, otherwise
// returns it as-is
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.ResolveReference(ref)
	}
	return obj, nil
}

// GetCatalog returns the document catalog (root object)
func (r *Reader) GetCatalog() (core.Dict, error) {
	rootRef := r.trailer.Get("Root")
	if rootRef == nil {
		return nil, fmt.Errorf("trailer missing /Root entry")
	}
	obj, err := r.Resolve(rootRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}
	return catalog, nil
}

// GetInfo returns the document info dictionary, nil when absent
func (r *Reader) GetInfo() (core.Dict, error) {
	infoRef := r.trailer.Get("Info")
	if infoRef == nil {
		return nil, nil
	}
	obj, err := r.Resolve(infoRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve info: %w", err)
	}
	info, _ := obj.(core.Dict)
	return info, nil
}

// ensurePages walks the page tree once
func (r *Reader) ensurePages() error {
	if r.pageList != nil {
		return nil
	}
	catalog, err := r.GetCatalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}
	root, err := pages.NewCatalog(catalog, r).Pages()
	if err != nil {
		return err
	}
	r.pageTree = pages.NewPageTree(root, r)
	list, err := r.pageTree.Pages()
	if err != nil {
		return err
	}
	if list == nil {
		list = []*pages.Page{}
	}
	r.pageList = list
	return nil
}

// PageCount returns the number of pages. A document whose page tree cannot
// be read has no pages.
func (r *Reader) PageCount() int {
	if err := r.ensurePages(); err != nil {
		r.logger.Warn("page tree unreadable", zap.String("path", r.path), zap.Error(err))
		return 0
	}
	return len(r.pageList)
}

// GetPage returns the page at the given index (0-based)
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if err := r.ensurePages(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(r.pageList) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(r.pageList))
	}
	return r.pageList[index], nil
}

// loadFont returns the font for a /Font resource entry, cached by reference
func (r *Reader) loadFont(obj core.Object) (*font.Font, error) {
	ref, isRef := obj.(core.IndirectRef)
	if isRef {
		if f, ok := r.fonts.Get(ref); ok {
			return f, nil
		}
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("font is %T, not a dictionary", resolved)
	}
	f, err := font.Load(dict, r.ResolveReference)
	if err != nil {
		return nil, err
	}
	if isRef {
		r.fonts.Add(ref, f)
	}
	return f, nil
}

// Close releases the document data and caches
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.data = nil
	r.objCache.Purge()
	r.objStms.Purge()
	r.fonts.Purge()
	r.pageList = nil
	r.pageTree = nil
	return nil
}
