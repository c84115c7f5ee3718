package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// annotHidden is the Hidden annotation flag (PDF 32000-1, 12.5.3)
const annotHidden = 1 << 1

// flattener draws widget appearances into page content and removes the
// interactive form
type flattener struct {
	ctx *model.Context
	seq int

	// form-wide defaults from the AcroForm dictionary
	da    string
	fonts types.Dict

	// stale names fields whose appearance no longer shows their value
	stale    map[string]bool
	fallback *types.IndirectRef
}

// appearance is a form XObject ready to be painted over a widget rectangle
type appearance struct {
	ref    types.IndirectRef
	bbox   [4]float64
	matrix [6]float64
}

var identityMatrix = [6]float64{1, 0, 0, 1, 0, 0}

// flattenForm replaces every widget annotation with its normal appearance
// and drops the AcroForm dictionary from the catalog. Text and choice
// widgets without a usable appearance, and the fields named in stale, are
// drawn from their value.
func flattenForm(ctx *model.Context, stale map[string]bool) error {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	fl := &flattener{ctx: ctx, stale: stale}
	fl.loadFormDefaults(rootDict)

	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageDict, _, inhAttrs, err := ctx.PageDict(pageNr, false)
		if err != nil {
			return fmt.Errorf("failed to read page %d: %w", pageNr, err)
		}
		if pageDict == nil {
			continue
		}

		var inheritedRes types.Dict
		if inhAttrs != nil {
			inheritedRes = inhAttrs.Resources
		}

		if err := fl.flattenPage(pageDict, inheritedRes); err != nil {
			return fmt.Errorf("failed to flatten page %d: %w", pageNr, err)
		}
	}

	delete(rootDict, "AcroForm")
	return nil
}

// loadFormDefaults reads /DA and /DR /Font of the AcroForm dictionary
func (fl *flattener) loadFormDefaults(rootDict types.Dict) {
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return
	}
	acroForm, err := fl.ctx.DereferenceDict(acroFormObj)
	if err != nil || acroForm == nil {
		return
	}

	if daObj, found := acroForm.Find("DA"); found {
		if da, err := fl.ctx.DereferenceStringOrHexLiteral(daObj, model.V10, nil); err == nil {
			fl.da = da
		}
	}

	drObj, found := acroForm.Find("DR")
	if !found {
		return
	}
	dr, err := fl.ctx.DereferenceDict(drObj)
	if err != nil || dr == nil {
		return
	}
	if fontObj, found := dr.Find("Font"); found {
		if fonts, err := fl.ctx.DereferenceDict(fontObj); err == nil {
			fl.fonts = fonts
		}
	}
}

func (fl *flattener) flattenPage(pageDict, inheritedRes types.Dict) error {
	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil
	}

	annots, err := fl.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Annots: %w", err)
	}

	var (
		kept    types.Array
		overlay bytes.Buffer
		xobjs   = make(map[string]types.IndirectRef)
	)

	for _, annotObj := range annots {
		annot, err := fl.ctx.DereferenceDict(annotObj)
		if err != nil || annot == nil || !fl.isWidget(annot) {
			kept = append(kept, annotObj)
			continue
		}

		if fl.isHidden(annot) {
			continue
		}

		rect, ok := fl.rect(annot, "Rect")
		if !ok {
			continue
		}
		ap, ok := fl.appearance(annot, rect)
		if !ok {
			continue
		}

		fl.seq++
		name := fmt.Sprintf("FlatFld%d", fl.seq)
		xobjs[name] = ap.ref
		writePlacement(&overlay, name, ap.bbox, ap.matrix, rect)
	}

	if len(kept) > 0 {
		pageDict["Annots"] = kept
	} else {
		delete(pageDict, "Annots")
	}

	if overlay.Len() == 0 {
		return nil
	}

	if err := fl.addXObjects(pageDict, inheritedRes, xobjs); err != nil {
		return err
	}
	return fl.wrapContents(pageDict, overlay.Bytes())
}

func (fl *flattener) isWidget(annot types.Dict) bool {
	subtypeObj, found := annot.Find("Subtype")
	if !found {
		return false
	}
	subtype, err := fl.ctx.DereferenceName(subtypeObj, model.V10, nil)
	return err == nil && string(subtype) == "Widget"
}

func (fl *flattener) isHidden(annot types.Dict) bool {
	flagsObj, found := annot.Find("F")
	if !found {
		return false
	}
	flags, err := fl.ctx.DereferenceInteger(flagsObj)
	return err == nil && flags != nil && int(*flags)&annotHidden != 0
}

// appearance picks what to paint for a widget: its normal appearance
// stream, or one generated from the field value
func (fl *flattener) appearance(annot types.Dict, rect [4]float64) (appearance, bool) {
	wf := fl.widgetField(annot)
	if !fl.stale[wf.name] {
		if ap, ok := fl.normalAppearance(annot); ok {
			return ap, true
		}
	}
	return fl.valueAppearance(wf, rect)
}

// normalAppearance resolves the /AP /N stream of a widget, picking the
// state named by /AS when /N is a state dictionary
func (fl *flattener) normalAppearance(annot types.Dict) (appearance, bool) {
	apObj, found := annot.Find("AP")
	if !found {
		return appearance{}, false
	}
	apDict, err := fl.ctx.DereferenceDict(apObj)
	if err != nil || apDict == nil {
		return appearance{}, false
	}
	nObj, found := apDict.Find("N")
	if !found {
		return appearance{}, false
	}

	if ap, ok := fl.streamAppearance(nObj); ok {
		return ap, true
	}

	states, err := fl.ctx.DereferenceDict(nObj)
	if err != nil || states == nil {
		return appearance{}, false
	}
	asObj, found := annot.Find("AS")
	if !found {
		return appearance{}, false
	}
	state, err := fl.ctx.DereferenceName(asObj, model.V10, nil)
	if err != nil {
		return appearance{}, false
	}
	stateObj, found := states.Find(string(state))
	if !found {
		return appearance{}, false
	}
	return fl.streamAppearance(stateObj)
}

// streamAppearance reads BBox and Matrix of the form XObject obj refers to
func (fl *flattener) streamAppearance(obj types.Object) (appearance, bool) {
	ref, ok := obj.(types.IndirectRef)
	if !ok {
		return appearance{}, false
	}
	o, err := fl.ctx.Dereference(ref)
	if err != nil {
		return appearance{}, false
	}
	sd, ok := o.(types.StreamDict)
	if !ok {
		return appearance{}, false
	}

	bbox, ok := fl.rect(sd.Dict, "BBox")
	if !ok {
		return appearance{}, false
	}

	matrix := identityMatrix
	if m, ok := fl.numbers(sd.Dict, "Matrix"); ok && len(m) == 6 {
		copy(matrix[:], m)
	}
	return appearance{ref: ref, bbox: bbox, matrix: matrix}, true
}

// numbers reads an array of numbers
func (fl *flattener) numbers(d types.Dict, key string) ([]float64, bool) {
	obj, found := d.Find(key)
	if !found {
		return nil, false
	}
	arr, err := fl.ctx.DereferenceArray(obj)
	if err != nil {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, o := range arr {
		f, err := fl.ctx.DereferenceNumber(o)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// rect reads a four number array entry
func (fl *flattener) rect(d types.Dict, key string) ([4]float64, bool) {
	var r [4]float64

	n, ok := fl.numbers(d, key)
	if !ok || len(n) != 4 {
		return r, false
	}
	copy(r[:], n)

	// Normalize so that index 0,1 is the lower left corner
	if r[0] > r[2] {
		r[0], r[2] = r[2], r[0]
	}
	if r[1] > r[3] {
		r[1], r[3] = r[3], r[1]
	}
	return r, true
}

// transformBBox returns the bounding box of bbox mapped through m
func transformBBox(bbox [4]float64, m [6]float64) [4]float64 {
	corners := [4][2]float64{
		{bbox[0], bbox[1]}, {bbox[2], bbox[1]},
		{bbox[0], bbox[3]}, {bbox[2], bbox[3]},
	}

	var box [4]float64
	for i, c := range corners {
		x := m[0]*c[0] + m[2]*c[1] + m[4]
		y := m[1]*c[0] + m[3]*c[1] + m[5]
		if i == 0 {
			box = [4]float64{x, y, x, y}
			continue
		}
		box[0] = math.Min(box[0], x)
		box[1] = math.Min(box[1], y)
		box[2] = math.Max(box[2], x)
		box[3] = math.Max(box[3], y)
	}
	return box
}

// writePlacement emits the operators that fit the appearance box, bbox
// transformed by the form matrix, onto rect and paint name
func writePlacement(buf *bytes.Buffer, name string, bbox [4]float64, matrix [6]float64, rect [4]float64) {
	bbox = transformBBox(bbox, matrix)

	sx, sy := 1.0, 1.0
	if w := bbox[2] - bbox[0]; w > 0 {
		sx = (rect[2] - rect[0]) / w
	}
	if h := bbox[3] - bbox[1]; h > 0 {
		sy = (rect[3] - rect[1]) / h
	}
	tx := rect[0] - bbox[0]*sx
	ty := rect[1] - bbox[1]*sy

	fmt.Fprintf(buf, "q %s 0 0 %s %s %s cm /%s Do Q\n",
		num(sx), num(sy), num(tx), num(ty), name)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// addXObjects registers the appearance streams in the page resources
func (fl *flattener) addXObjects(pageDict, inheritedRes types.Dict, xobjs map[string]types.IndirectRef) error {
	var res types.Dict
	if resObj, found := pageDict.Find("Resources"); found {
		d, err := fl.ctx.DereferenceDict(resObj)
		if err != nil {
			return fmt.Errorf("failed to dereference Resources: %w", err)
		}
		res = d
	}
	if res == nil {
		// Copy inherited resources so the new page dict does not hide them
		res = types.Dict{}
		for k, v := range inheritedRes {
			res[k] = v
		}
		pageDict["Resources"] = res
	}

	var xobjDict types.Dict
	if xoObj, found := res.Find("XObject"); found {
		d, err := fl.ctx.DereferenceDict(xoObj)
		if err != nil {
			return fmt.Errorf("failed to dereference XObject resources: %w", err)
		}
		xobjDict = d
	}
	if xobjDict == nil {
		xobjDict = types.Dict{}
		res["XObject"] = xobjDict
	}

	for name, ref := range xobjs {
		xobjDict[name] = ref
	}
	return nil
}

// wrapContents isolates the existing page content in q/Q and appends overlay
func (fl *flattener) wrapContents(pageDict types.Dict, overlay []byte) error {
	pre, err := fl.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	post, err := fl.newContentStream(append([]byte("Q\n"), overlay...))
	if err != nil {
		return err
	}

	contents := types.Array{*pre}
	if obj, found := pageDict.Find("Contents"); found {
		o, err := fl.ctx.Dereference(obj)
		if err != nil {
			return fmt.Errorf("failed to dereference Contents: %w", err)
		}
		if arr, ok := o.(types.Array); ok {
			contents = append(contents, arr...)
		} else if o != nil {
			contents = append(contents, obj)
		}
	}
	contents = append(contents, *post)

	pageDict["Contents"] = contents
	return nil
}

func (fl *flattener) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := fl.ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	ref, err := fl.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("failed to register content stream: %w", err)
	}
	return ref, nil
}
