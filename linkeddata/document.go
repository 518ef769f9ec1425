// Package linkeddata fetches linked-data documents and exposes typed
// accessors over their subject/predicate/object triples. It is the read
// layer under the catalog resolver and the decision reader.
package linkeddata

import (
	"bytes"
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/knakk/rdf"

	"github.com/hoelk-f/heatspace/errors"
	"github.com/hoelk-f/heatspace/vocabulary"
)

// Fetcher issues the cache-bypassing GET requests documents are loaded
// with. Satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url, accept string) (*resty.Response, error)
}

// object is one parsed triple object: a literal value or a resolved IRI.
type object struct {
	value string
	iri   bool
}

// Document is a parsed linked-data document. Subject and object IRIs are
// resolved against the document URL at load time, so accessors always see
// absolute identifiers.
type Document struct {
	// URL is the document URL the graph was loaded from (no fragment).
	URL string

	subjects []string
	props    map[string]map[string][]object
}

// Load fetches the document holding resourceURL and parses its triples.
// Non-success responses classify as not-found and parse failures as
// unparseable; both are recoverable for the discovery and decision paths.
func Load(ctx context.Context, f Fetcher, resourceURL string) (*Document, error) {
	docURL := vocabulary.DocumentURL(resourceURL)

	resp, err := f.Get(ctx, docURL, "text/turtle")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.WrapNotFound(errors.ErrDocumentNotFound, "linkeddata", "Load", "fetch "+docURL)
	}

	return Parse(docURL, resp.Body())
}

// Parse decodes a Turtle document body into a Document.
func Parse(docURL string, body []byte) (*Document, error) {
	triples, err := rdf.NewTripleDecoder(bytes.NewReader(body), rdf.Turtle).DecodeAll()
	if err != nil {
		return nil, errors.WrapUnparseable(err, "linkeddata", "Parse", "decode "+docURL)
	}

	doc := &Document{
		URL:   docURL,
		props: make(map[string]map[string][]object),
	}

	for _, t := range triples {
		subj := vocabulary.ResolveURL(t.Subj.String(), docURL)
		pred := t.Pred.String()

		preds, ok := doc.props[subj]
		if !ok {
			preds = make(map[string][]object)
			doc.props[subj] = preds
			doc.subjects = append(doc.subjects, subj)
		}

		obj := object{value: t.Obj.String()}
		if t.Obj.Type() == rdf.TermIRI {
			obj.iri = true
			obj.value = vocabulary.ResolveURL(obj.value, docURL)
		}
		preds[pred] = append(preds[pred], obj)
	}

	return doc, nil
}

// HasSubject reports whether the document states anything about subject.
func (d *Document) HasSubject(subject string) bool {
	_, ok := d.props[subject]
	return ok
}

// PrimarySubject returns the first of the candidate subjects present in
// the document, falling back to the first subject in triple order. Returns
// "" for a document with no triples.
func (d *Document) PrimarySubject(candidates ...string) string {
	for _, c := range candidates {
		if c != "" && d.HasSubject(c) {
			return c
		}
	}
	if len(d.subjects) > 0 {
		return d.subjects[0]
	}
	return ""
}

// Str returns the first literal value of (subject, predicate), or "".
func (d *Document) Str(subject, predicate string) string {
	for _, o := range d.objects(subject, predicate) {
		if !o.iri {
			return o.value
		}
	}
	return ""
}

// IRI returns the first IRI value of (subject, predicate), or "".
func (d *Document) IRI(subject, predicate string) string {
	for _, o := range d.objects(subject, predicate) {
		if o.iri {
			return o.value
		}
	}
	return ""
}

// IRIs returns all IRI values of (subject, predicate) in declared order.
func (d *Document) IRIs(subject, predicate string) []string {
	var out []string
	for _, o := range d.objects(subject, predicate) {
		if o.iri {
			out = append(out, o.value)
		}
	}
	return out
}

// Time returns the first literal of (subject, predicate) parsed as an
// instant. ok is false when the value is absent or unparseable.
func (d *Document) Time(subject, predicate string) (time.Time, bool) {
	return ParseInstant(d.Str(subject, predicate))
}

// Types returns the rdf:type IRIs of subject.
func (d *Document) Types(subject string) []string {
	return d.IRIs(subject, vocabulary.RDFType)
}

// HasType reports whether subject carries the given rdf:type.
func (d *Document) HasType(subject, typeIRI string) bool {
	for _, t := range d.Types(subject) {
		if t == typeIRI {
			return true
		}
	}
	return false
}

// Contained returns the resources an LDP container document lists via
// ldp:contains. The container itself is the document's subject.
func (d *Document) Contained() []string {
	subject := d.PrimarySubject(d.URL, vocabulary.NormalizeContainerURL(d.URL))
	return d.IRIs(subject, vocabulary.LDPContains)
}

func (d *Document) objects(subject, predicate string) []object {
	preds, ok := d.props[subject]
	if !ok {
		return nil
	}
	return preds[predicate]
}

// instantLayouts are the accepted instant shapes, most specific first.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseInstant parses an instant string in any accepted layout.
func ParseInstant(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
