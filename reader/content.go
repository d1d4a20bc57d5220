package reader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/contentstream"
	"github.com/cioplenu/pdf-lib/core"
	"github.com/cioplenu/pdf-lib/font"
	"github.com/cioplenu/pdf-lib/graphicsstate"
	"github.com/cioplenu/pdf-lib/imaging"
	"github.com/cioplenu/pdf-lib/model"
)

// maxFormDepth bounds nested form XObjects
const maxFormDepth = 12

// PageGlyphs returns one glyph per shown character on page index (0-based).
// Boxes are in top-down coordinates relative to the crop box with the page
// rotation applied.
func (r *Reader) PageGlyphs(index int) ([]model.Glyph, error) {
	pc, err := r.runPage(index, true, false)
	if err != nil {
		return nil, err
	}
	return pc.glyphs, nil
}

// PageImages returns the images painted on page index (0-based) in painting
// order, including those inside form XObjects. Samples are decoded lazily by
// each image's Source.
func (r *Reader) PageImages(index int) ([]model.ImageObject, error) {
	pc, err := r.runPage(index, false, true)
	if err != nil {
		return nil, err
	}
	return pc.images, nil
}

// pageContext collects results for one page across nested forms
type pageContext struct {
	r        *Reader
	number   int
	toPage   model.Matrix
	glyphs   []model.Glyph
	images   []model.ImageObject
	onStack  map[core.IndirectRef]bool
	wantText bool
	wantImgs bool
}

func (r *Reader) runPage(index int, wantText, wantImgs bool) (*pageContext, error) {
	page, err := r.GetPage(index)
	if err != nil {
		return nil, err
	}
	resources, err := page.Resources()
	if err != nil {
		return nil, err
	}
	data, err := page.ContentData()
	if err != nil {
		return nil, fmt.Errorf("page content: %w", err)
	}

	pc := &pageContext{
		r:        r,
		number:   index + 1,
		toPage:   PageMatrix(page.CropBox(), page.Rotate()),
		onStack:  make(map[core.IndirectRef]bool),
		wantText: wantText,
		wantImgs: wantImgs,
	}
	h := pc.handler(resources, 0)
	if err := graphicsstate.NewInterpreter(h, nil).RunBytes(data); err != nil {
		// a broken inline image ends the stream; what came before stands
		r.logger.Debug("content stream truncated",
			zap.String("path", r.path), zap.Int("page", pc.number), zap.Error(err))
	}
	return pc, nil
}

// PageMatrix maps user space to top-down page coordinates relative to the
// crop box origin, after a clockwise rotation of rotate degrees
func PageMatrix(crop [4]float64, rotate int) model.Matrix {
	x0, y0, x1, y1 := crop[0], crop[1], crop[2], crop[3]
	switch rotate {
	case 90:
		return model.Matrix{0, 1, 1, 0, -y0, -x0}
	case 180:
		return model.Matrix{-1, 0, 0, 1, x1, -y0}
	case 270:
		return model.Matrix{0, -1, -1, 0, y1, x1}
	default:
		return model.Matrix{1, 0, 0, -1, -x0, y1}
	}
}

func (pc *pageContext) box(corners []model.Point) model.Rect {
	pts := make([]model.Point, len(corners))
	for i, p := range corners {
		pts[i] = pc.toPage.Transform(p)
	}
	return model.RectFromPoints(pts...)
}

func (pc *pageContext) handler(resources core.Dict, depth int) *contentHandler {
	return &contentHandler{
		pc:          pc,
		resources:   resources,
		fonts:       pc.r.subDict(resources, "Font"),
		xobjects:    pc.r.subDict(resources, "XObject"),
		colorSpaces: pc.r.subDict(resources, "ColorSpace"),
		depth:       depth,
	}
}

// subDict resolves resources[key] to a dictionary, nil when absent
func (r *Reader) subDict(resources core.Dict, key string) core.Dict {
	obj, err := r.Resolve(resources.Get(key))
	if err != nil {
		return nil
	}
	d, _ := obj.(core.Dict)
	return d
}

// contentHandler serves one content stream: a page or a form XObject
type contentHandler struct {
	pc          *pageContext
	resources   core.Dict
	fonts       core.Dict
	xobjects    core.Dict
	colorSpaces core.Dict
	depth       int
}

var _ graphicsstate.Handler = (*contentHandler)(nil)

func (h *contentHandler) Font(name string) (*font.Font, error) {
	obj := h.fonts.Get(name)
	if obj == nil {
		return nil, fmt.Errorf("font %s not in resources", name)
	}
	f, err := h.pc.r.loadFont(obj)
	if err != nil {
		h.pc.r.logger.Debug("font not loaded", zap.String("font", name), zap.Error(err))
		return nil, err
	}
	return f, nil
}

func (h *contentHandler) Glyph(g graphicsstate.TextGlyph) {
	if !h.pc.wantText {
		return
	}
	h.pc.glyphs = append(h.pc.glyphs, model.Glyph{
		Text: g.Text,
		Box:  h.pc.box(g.Corners),
		Page: h.pc.number,
	})
}

func (h *contentHandler) XObject(name string, gs *graphicsstate.GraphicsState) error {
	ref := h.xobjects.Get(name)
	obj, err := h.pc.r.Resolve(ref)
	if err != nil {
		h.pc.r.logger.Debug("xobject not resolved", zap.String("xobject", name), zap.Error(err))
		return nil
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil
	}

	subtype, _ := stream.Dict.GetName("Subtype")
	switch subtype {
	case "Image":
		if h.pc.wantImgs {
			h.addImage(name, imaging.FromStream(stream, h.colorSpaces, h.pc.r), gs)
		}
	case "Form":
		h.runForm(name, ref, stream, gs)
	}
	return nil
}

func (h *contentHandler) InlineImage(img *contentstream.InlineImage, gs *graphicsstate.GraphicsState) error {
	if h.pc.wantImgs {
		h.addImage("inline", imaging.FromInline(img.Dict, img.Data, h.colorSpaces, h.pc.r), gs)
	}
	return nil
}

// addImage records an image painted into the unit square under the CTM
func (h *contentHandler) addImage(name string, img *imaging.Image, gs *graphicsstate.GraphicsState) {
	obj := model.ImageObject{
		Box:    h.pc.box(gs.CTM.Corners(0, 0, 1, 1)),
		Page:   h.pc.number,
		Name:   name,
		Source: img,
	}
	// an unreadable header still yields an object; Pixels reports the error
	if info, err := img.Info(); err == nil {
		obj.Width, obj.Height, obj.ColorModel = info.Width, info.Height, info.ColorModel
	}
	h.pc.images = append(h.pc.images, obj)
}

func (h *contentHandler) runForm(name string, ref core.Object, form *core.Stream, gs *graphicsstate.GraphicsState) {
	logger := h.pc.r.logger.With(zap.String("form", name), zap.Int("page", h.pc.number))
	if h.depth >= maxFormDepth {
		logger.Debug("form nesting too deep")
		return
	}
	formRef, isRef := ref.(core.IndirectRef)
	if isRef {
		if h.pc.onStack[formRef] {
			logger.Debug("form draws itself")
			return
		}
		h.pc.onStack[formRef] = true
		defer delete(h.pc.onStack, formRef)
	}

	data, err := form.Decode()
	if err != nil {
		logger.Debug("form content not decoded", zap.Error(err))
		return
	}

	// forms without resources use the resources of the stream painting them
	resources := h.resources
	if obj, err := h.pc.r.Resolve(form.Dict.Get("Resources")); err == nil {
		if d, ok := obj.(core.Dict); ok {
			resources = d
		}
	}

	state := gs.Clone()
	if arr, ok := form.Dict.GetArray("Matrix"); ok {
		if vals, ok := arr.Floats(); ok && len(vals) == 6 {
			state.Transform(model.Matrix(vals))
		}
	}

	sub := h.pc.handler(resources, h.depth+1)
	if err := graphicsstate.NewInterpreter(sub, state).RunBytes(data); err != nil {
		logger.Debug("form content truncated", zap.Error(err))
	}
}
