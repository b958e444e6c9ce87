// Package genbank reads GenBank flat files into a Record holding the source
// metadata, the feature table and the raw nucleotide sequence.
package genbank

// Fallback values for metadata missing from a record.
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

// Annotation keys set by the parser.
const (
	AnnotMoleculeType = "molecule_type"
	AnnotTopology     = "topology"
	AnnotDivision     = "data_file_division"
	AnnotDate         = "date"
	AnnotLocus        = "locus"
	AnnotAccessions   = "accessions"
	AnnotKeywords     = "keywords"
	AnnotSource       = "source"
	AnnotComment      = "comment"
	AnnotDBLink       = "dblink"
)

// Qualifier is one /key=value entry group of a feature. A key that appears
// several times on the same feature keeps every value in file order.
type Qualifier struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Feature is one entry of the feature table. Location is kept verbatim.
type Feature struct {
	Type       string      `json:"type"`
	Location   string      `json:"location"`
	Qualifiers []Qualifier `json:"qualifiers,omitempty"`
}

// Qualifier returns the values recorded under key, or nil.
func (f *Feature) Qualifier(key string) []string {
	for _, q := range f.Qualifiers {
		if q.Key == key {
			return q.Values
		}
	}
	return nil
}

func (f *Feature) addQualifier(key, value string) {
	for i := range f.Qualifiers {
		if f.Qualifiers[i].Key == key {
			f.Qualifiers[i].Values = append(f.Qualifiers[i].Values, value)
			return
		}
	}
	f.Qualifiers = append(f.Qualifiers, Qualifier{Key: key, Values: []string{value}})
}

// Record is a single parsed GenBank entry. Callers own it; nothing in this
// module mutates a Record after Parse returns.
type Record struct {
	Accession   string            `json:"accession"`
	Description string            `json:"description"`
	Organism    string            `json:"organism"`
	Taxonomy    []string          `json:"taxonomy"`
	Annotations map[string]string `json:"annotations"`
	Features    []Feature         `json:"features"`
	Sequence    string            `json:"sequence"`
}

// Annotation returns the annotation stored under key, or Unknown.
func (r *Record) Annotation(key string) string {
	if v, ok := r.Annotations[key]; ok && v != "" {
		return v
	}
	return Unknown
}

// MoleculeType is shorthand for Annotation(AnnotMoleculeType).
func (r *Record) MoleculeType() string { return r.Annotation(AnnotMoleculeType) }

// Topology is shorthand for Annotation(AnnotTopology).
func (r *Record) Topology() string { return r.Annotation(AnnotTopology) }

// NewRecord builds a Record for a bare sequence, for sources that carry no
// flat-file metadata. Missing fields take the same fallbacks as Parse.
func NewRecord(accession, description, sequence string) *Record {
	rec := &Record{
		Accession:   accession,
		Description: description,
		Annotations: map[string]string{},
		Sequence:    sequence,
	}
	rec.fillDefaults()
	return rec
}

// fillDefaults applies the tolerant-metadata fallbacks.
func (r *Record) fillDefaults() {
	if r.Organism == "" {
		r.Organism = NotAvailable
	}
	if r.Taxonomy == nil {
		r.Taxonomy = []string{}
	}
	if r.Features == nil {
		r.Features = []Feature{}
	}
	for _, k := range []string{AnnotMoleculeType, AnnotTopology} {
		if r.Annotations[k] == "" {
			r.Annotations[k] = Unknown
		}
	}
}
