package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// ErrEncrypted is returned for documents protected by a security handler
var ErrEncrypted = errors.New("encrypted documents are not supported")

// maxTreeDepth bounds page tree and xref chain traversal
const maxTreeDepth = 64

// Document represents a parsed PDF file
type Document struct {
	data    []byte
	Version string
	Trailer Dictionary
	Root    Dictionary
	Pages   []*Page

	xref      map[int]xrefEntry
	objects   map[int]Object
	objStms   map[int]*objectStream
	resolving map[int]bool
	scanned   map[int]int
	fonts     map[Reference]*fontFace
}

// xrefEntry locates an object either at a file offset or inside an object stream
type xrefEntry struct {
	Offset     int
	Generation int
	InUse      bool
	// StreamObjNum is non-zero for objects stored in an object stream.
	StreamObjNum int
	Index        int
}

type objectStream struct {
	data    []byte
	first   int
	offsets []int
}

// Rectangle represents a PDF rectangle
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// IsZero reports whether the rectangle has no area
func (r Rectangle) IsZero() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Page represents a leaf of the page tree with inherited attributes applied
type Page struct {
	doc        *Document
	Dictionary Dictionary
	Number     int
	MediaBox   Rectangle
	CropBox    Rectangle
	Resources  Dictionary
	Rotate     int
}

// Open reads and parses a PDF file
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewDocument(data)
}

// NewReader parses a PDF read fully from r
func NewReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(data)
}

// NewDocument parses PDF bytes
func NewDocument(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	doc = &Document{
		data:      data,
		xref:      make(map[int]xrefEntry),
		objects:   make(map[int]Object),
		objStms:   make(map[int]*objectStream),
		resolving: make(map[int]bool),
		fonts:     make(map[Reference]*fontFace),
	}
	if err := doc.parse(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Document) parse() error {
	head := d.data
	if len(head) > 1024 {
		head = head[:1024]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return errors.New("not a PDF file")
	}
	d.Version = readVersion(d.data[idx+5:])

	if err := d.loadXRef(); err != nil || d.catalog() == nil {
		if rerr := d.reconstruct(); rerr != nil {
			if err != nil {
				return fmt.Errorf("%w (reconstruction failed: %v)", err, rerr)
			}
			return rerr
		}
	}

	if d.Trailer.Get("Encrypt") != nil {
		return ErrEncrypted
	}

	d.Root = d.catalog()
	if d.Root == nil {
		return errors.New("missing document catalog")
	}
	return d.loadPages()
}

func readVersion(b []byte) string {
	end := 0
	for end < len(b) && end < 8 && (b[end] == '.' || (b[end] >= '0' && b[end] <= '9')) {
		end++
	}
	return string(b[:end])
}

func (d *Document) catalog() Dictionary {
	if d.Trailer == nil {
		return nil
	}
	root, _ := d.Resolve(d.Trailer.Get("Root")).(Dictionary)
	return root
}

// findStartXRef reads the offset after the last startxref keyword
func (d *Document) findStartXRef() (int, error) {
	tail := d.data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("startxref not found")
	}
	lex := NewLexer(tail[idx+len("startxref"):])
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, errors.New("invalid startxref offset")
	}
	return int(tok.Value.(int64)), nil
}

// loadXRef walks the xref chain from startxref through /Prev links
func (d *Document) loadXRef() error {
	offset, err := d.findStartXRef()
	if err != nil {
		return err
	}

	seen := make(map[int]bool)
	for depth := 0; depth < maxTreeDepth; depth++ {
		if offset <= 0 || offset >= len(d.data) || seen[offset] {
			break
		}
		seen[offset] = true

		trailer, err := d.parseXRefSection(offset)
		if err != nil {
			return err
		}
		if d.Trailer == nil {
			d.Trailer = trailer
		}

		if stm, ok := toInt(trailer.Get("XRefStm")); ok && !seen[stm] {
			seen[stm] = true
			if _, err := d.parseXRefStream(stm); err != nil {
				return err
			}
		}

		prev, ok := toInt(trailer.Get("Prev"))
		if !ok {
			break
		}
		offset = prev
	}

	if d.Trailer == nil {
		return errors.New("no trailer found")
	}
	return nil
}

func (d *Document) parseXRefSection(offset int) (Dictionary, error) {
	lex := NewLexer(d.data)
	lex.Seek(offset)
	lex.skipWhitespace()
	if bytes.HasPrefix(d.data[lex.Position():], []byte("xref")) {
		return d.parseXRefTable(lex.Position() + 4)
	}
	return d.parseXRefStream(offset)
}

// parseXRefTable reads "start count" subsections of "offset gen n|f" rows
func (d *Document) parseXRefTable(offset int) (Dictionary, error) {
	p := NewParser(d.data)
	p.lex.Seek(offset)

	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenKeyword && tok.Value.(string) == "trailer" {
			break
		}
		if tok.Type != TokenInteger {
			return nil, &SyntaxError{Offset: tok.Pos, Msg: "malformed xref table"}
		}
		countTok, err := p.lex.NextToken()
		if err != nil || countTok.Type != TokenInteger {
			return nil, &SyntaxError{Offset: tok.Pos, Msg: "malformed xref subsection"}
		}

		start, count := int(tok.Value.(int64)), int(countTok.Value.(int64))
		for i := 0; i < count; i++ {
			offTok, err1 := p.lex.NextToken()
			genTok, err2 := p.lex.NextToken()
			kindTok, err3 := p.lex.NextToken()
			if err1 != nil || err2 != nil || err3 != nil ||
				offTok.Type != TokenInteger || genTok.Type != TokenInteger || kindTok.Type != TokenKeyword {
				return nil, &SyntaxError{Offset: offTok.Pos, Msg: "malformed xref entry"}
			}
			num := start + i
			if _, exists := d.xref[num]; exists {
				continue
			}
			d.xref[num] = xrefEntry{
				Offset:     int(offTok.Value.(int64)),
				Generation: int(genTok.Value.(int64)),
				InUse:      kindTok.Value.(string) == "n",
			}
		}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}
	trailer, ok := obj.(Dictionary)
	if !ok {
		return nil, errors.New("trailer is not a dictionary")
	}
	return trailer, nil
}

// parseXRefStream reads a cross-reference stream and returns its dictionary
func (d *Document) parseXRefStream(offset int) (Dictionary, error) {
	p := NewParser(d.data)
	p.lex.Seek(offset)
	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(Stream)
	if !ok {
		return nil, fmt.Errorf("xref stream expected at offset %d", offset)
	}

	data, _, err := d.DecodeStream(stream)
	if err != nil {
		return nil, err
	}

	wArr, _ := stream.Dictionary.Get("W").(Array)
	w, ok := wArr.Floats()
	if !ok || len(w) != 3 {
		return nil, errors.New("invalid xref stream /W")
	}
	w0, w1, w2 := int(w[0]), int(w[1]), int(w[2])

	var index []float64
	if arr, ok := stream.Dictionary.Get("Index").(Array); ok {
		index, _ = arr.Floats()
	} else {
		index = []float64{0, float64(intOr(stream.Dictionary.Get("Size"), 0))}
	}

	rowSize := w0 + w1 + w2
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := int(index[i]), int(index[i+1])
		for j := 0; j < count && pos+rowSize <= len(data); j++ {
			row := data[pos : pos+rowSize]
			pos += rowSize

			kind := 1
			if w0 > 0 {
				kind = readField(row[:w0])
			}
			f2 := readField(row[w0 : w0+w1])
			f3 := readField(row[w0+w1:])

			num := start + j
			if _, exists := d.xref[num]; exists {
				continue
			}
			switch kind {
			case 0:
				d.xref[num] = xrefEntry{}
			case 1:
				d.xref[num] = xrefEntry{Offset: f2, Generation: f3, InUse: true}
			case 2:
				d.xref[num] = xrefEntry{StreamObjNum: f2, Index: f3, InUse: true}
			}
		}
	}
	return stream.Dictionary, nil
}

func readField(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

var objHeader = regexp.MustCompile(`(?m)(\d+)[ \t\r\n]+(\d+)[ \t\r\n]+obj\b`)

// reconstruct rebuilds the xref by scanning for object headers, used when
// the cross-reference data is missing or inconsistent
func (d *Document) reconstruct() error {
	d.xref = make(map[int]xrefEntry)
	d.objects = make(map[int]Object)
	d.scanObjects()
	for num, off := range d.scanned {
		d.xref[num] = xrefEntry{Offset: off, InUse: true}
	}

	var trailer Dictionary
	for pos := 0; ; {
		idx := bytes.Index(d.data[pos:], []byte("trailer"))
		if idx < 0 {
			break
		}
		p := NewParser(d.data)
		p.lex.Seek(pos + idx + len("trailer"))
		if obj, err := p.ParseObject(); err == nil {
			if dict, ok := obj.(Dictionary); ok && dict.Get("Root") != nil {
				trailer = dict
			}
		}
		pos += idx + len("trailer")
	}

	if trailer == nil {
		// xref streams carry the trailer keys; fall back to any catalog
		for num := range d.scanned {
			obj := d.object(num)
			if s, ok := obj.(Stream); ok && s.Dictionary.Get("Root") != nil {
				trailer = s.Dictionary
				break
			}
			if dict, ok := obj.(Dictionary); ok {
				if t, _ := dict.Get("Type").(Name); t == "Catalog" {
					trailer = Dictionary{"Root": Reference{ObjectNumber: num}}
				}
			}
		}
		// register objects held in object streams
		for num := range d.scanned {
			if s, ok := d.object(num).(Stream); ok {
				if t, _ := s.Dictionary.Get("Type").(Name); t == "ObjStm" {
					d.indexObjectStream(num)
				}
			}
		}
	}
	if trailer == nil {
		return errors.New("no trailer or catalog found")
	}
	d.Trailer = trailer
	return nil
}

// scanObjects records the last offset of every "N G obj" header
func (d *Document) scanObjects() {
	if d.scanned != nil {
		return
	}
	d.scanned = make(map[int]int)
	for _, m := range objHeader.FindAllSubmatchIndex(d.data, -1) {
		num, err := strconv.Atoi(string(d.data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		d.scanned[num] = m[0]
	}
}

func (d *Document) indexObjectStream(num int) {
	stm, err := d.loadObjectStream(num)
	if err != nil {
		return
	}
	p := NewParser(stm.data[:stm.first])
	for i := range stm.offsets {
		objNum, _ := p.ParseObject()
		p.ParseObject()
		if n, ok := objNum.(Integer); ok {
			if _, exists := d.xref[int(n)]; !exists {
				d.xref[int(n)] = xrefEntry{StreamObjNum: num, Index: i, InUse: true}
			}
		}
	}
}

// Resolve follows references; unresolvable references yield nil
func (d *Document) Resolve(obj Object) Object {
	for i := 0; i < 8; i++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj
		}
		obj = d.object(ref.ObjectNumber)
	}
	return nil
}

// GetObject returns an indirect object by number
func (d *Document) GetObject(num int) (Object, error) {
	obj := d.object(num)
	if obj == nil {
		return nil, fmt.Errorf("object %d not found", num)
	}
	return obj, nil
}

func (d *Document) object(num int) Object {
	if obj, ok := d.objects[num]; ok {
		return obj
	}
	if d.resolving[num] {
		return nil
	}
	d.resolving[num] = true
	defer delete(d.resolving, num)

	obj := d.loadObject(num)
	if obj != nil {
		d.objects[num] = obj
	}
	return obj
}

func (d *Document) loadObject(num int) Object {
	entry, ok := d.xref[num]
	if !ok || !entry.InUse {
		return nil
	}
	if entry.StreamObjNum > 0 {
		obj, err := d.compressedObject(entry.StreamObjNum, entry.Index)
		if err != nil {
			return nil
		}
		return obj
	}

	if obj, ok := d.objectAt(num, entry.Offset); ok {
		return obj
	}
	// stale offset: fall back to a scan of the file
	d.scanObjects()
	if off, ok := d.scanned[num]; ok && off != entry.Offset {
		if obj, ok := d.objectAt(num, off); ok {
			return obj
		}
	}
	return nil
}

func (d *Document) objectAt(num, offset int) (Object, bool) {
	if offset < 0 || offset >= len(d.data) {
		return nil, false
	}
	p := NewParser(d.data)
	p.length = d.resolveLength
	p.lex.Seek(offset)
	ref, obj, err := p.ParseIndirectObject()
	if err != nil || ref.ObjectNumber != num {
		return nil, false
	}
	return obj, true
}

func (d *Document) resolveLength(obj Object) (int, bool) {
	return toInt(d.Resolve(obj))
}

func (d *Document) loadObjectStream(num int) (*objectStream, error) {
	if stm, ok := d.objStms[num]; ok {
		return stm, nil
	}
	stream, ok := d.object(num).(Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %d is not a stream", num)
	}
	data, _, err := d.DecodeStream(stream)
	if err != nil {
		return nil, err
	}

	first, ok1 := toInt(d.Resolve(stream.Dictionary.Get("First")))
	n, ok2 := toInt(d.Resolve(stream.Dictionary.Get("N")))
	if !ok1 || !ok2 || first > len(data) || first < 0 {
		return nil, fmt.Errorf("object stream %d has an invalid header", num)
	}

	stm := &objectStream{data: data, first: first}
	p := NewParser(data[:first])
	for i := 0; i < n; i++ {
		if _, err := p.ParseObject(); err != nil {
			break
		}
		off, err := p.ParseObject()
		if err != nil {
			break
		}
		v, _ := toInt(off)
		stm.offsets = append(stm.offsets, v)
	}
	d.objStms[num] = stm
	return stm, nil
}

func (d *Document) compressedObject(stmNum, index int) (Object, error) {
	stm, err := d.loadObjectStream(stmNum)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(stm.offsets) {
		return nil, fmt.Errorf("object index %d out of range", index)
	}
	start := stm.first + stm.offsets[index]
	if start >= len(stm.data) {
		return nil, fmt.Errorf("object index %d offset out of range", index)
	}
	return NewParser(stm.data[start:]).ParseObject()
}

// loadPages flattens the page tree
func (d *Document) loadPages() error {
	root, ok := d.Resolve(d.Root.Get("Pages")).(Dictionary)
	if !ok {
		return errors.New("missing page tree")
	}
	return d.walkPages(root, pageAttrs{}, make(map[int]bool), 0)
}

type pageAttrs struct {
	mediaBox  *Rectangle
	cropBox   *Rectangle
	resources Dictionary
	rotate    int
}

func (d *Document) walkPages(node Dictionary, inherited pageAttrs, seen map[int]bool, depth int) error {
	if depth > maxTreeDepth {
		return errors.New("page tree too deep")
	}

	attrs := inherited
	if r, ok := d.rect(node.Get("MediaBox")); ok {
		attrs.mediaBox = &r
	}
	if r, ok := d.rect(node.Get("CropBox")); ok {
		attrs.cropBox = &r
	}
	if res, ok := d.Resolve(node.Get("Resources")).(Dictionary); ok {
		attrs.resources = res
	}
	if rot, ok := toInt(d.Resolve(node.Get("Rotate"))); ok {
		attrs.rotate = rot
	}

	kids, hasKids := d.Resolve(node.Get("Kids")).(Array)
	typ, _ := d.Resolve(node.Get("Type")).(Name)
	if typ == "Pages" || (typ != "Page" && hasKids) {
		for _, kid := range kids {
			if ref, ok := kid.(Reference); ok {
				if seen[ref.ObjectNumber] {
					return errors.New("page tree is cyclic")
				}
				seen[ref.ObjectNumber] = true
			}
			kidDict, ok := d.Resolve(kid).(Dictionary)
			if !ok {
				continue
			}
			if err := d.walkPages(kidDict, attrs, seen, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	page := &Page{
		doc:        d,
		Dictionary: node,
		Number:     len(d.Pages) + 1,
		Resources:  attrs.resources,
		Rotate:     ((attrs.rotate % 360) + 360) % 360,
	}
	if attrs.mediaBox != nil {
		page.MediaBox = *attrs.mediaBox
	} else {
		// US Letter when no box is given anywhere
		page.MediaBox = Rectangle{0, 0, 612, 792}
	}
	page.CropBox = page.MediaBox
	if attrs.cropBox != nil {
		page.CropBox = intersect(*attrs.cropBox, page.MediaBox)
	}
	d.Pages = append(d.Pages, page)
	return nil
}

func (d *Document) rect(obj Object) (Rectangle, bool) {
	arr, ok := d.Resolve(obj).(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, false
	}
	var v [4]float64
	for i := range arr {
		f, ok := toFloat(d.Resolve(arr[i]))
		if !ok {
			return Rectangle{}, false
		}
		v[i] = f
	}
	return Rectangle{
		LLX: minF(v[0], v[2]), LLY: minF(v[1], v[3]),
		URX: maxF(v[0], v[2]), URY: maxF(v[1], v[3]),
	}, true
}

func intersect(a, b Rectangle) Rectangle {
	r := Rectangle{
		LLX: maxF(a.LLX, b.LLX), LLY: maxF(a.LLY, b.LLY),
		URX: minF(a.URX, b.URX), URY: minF(a.URY, b.URY),
	}
	if r.IsZero() {
		return b
	}
	return r
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// NumPages returns the number of pages
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// GetPage returns a page by number (1-indexed)
func (d *Document) GetPage(num int) (*Page, error) {
	if num < 1 || num > len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range", num)
	}
	return d.Pages[num-1], nil
}

// Close releases the parsed data
func (d *Document) Close() error {
	d.data = nil
	d.objects = nil
	d.objStms = nil
	d.fonts = nil
	return nil
}

// Contents returns the page's decoded content streams joined by newlines
func (p *Page) Contents() ([]byte, error) {
	var streams []Stream
	switch c := p.doc.Resolve(p.Dictionary.Get("Contents")).(type) {
	case nil, Null:
		return nil, nil
	case Stream:
		streams = append(streams, c)
	case Array:
		for _, item := range c {
			if s, ok := p.doc.Resolve(item).(Stream); ok {
				streams = append(streams, s)
			}
		}
	default:
		return nil, errors.New("invalid page /Contents")
	}

	var buf bytes.Buffer
	for i, s := range streams {
		data, _, err := p.doc.DecodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Size returns the visible page size in points after rotation
func (p *Page) Size() (float64, float64) {
	w, h := p.CropBox.Width(), p.CropBox.Height()
	if p.Rotate == 90 || p.Rotate == 270 {
		return h, w
	}
	return w, h
}
