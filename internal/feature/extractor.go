package feature

import (
	"math"
	"sort"
	"strings"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

// MaxFeatures caps the vocabulary to bound memory and the cost of pairwise
// similarity over the resulting vectors.
const MaxFeatures = 5000

// Field weights for the product document: repeated concatenation weights a
// field's terms proportionally in the term-frequency counts.
const (
	nameWeight        = 3
	categoryWeight    = 2
	tagWeight         = 2
	descriptionWeight = 1
	attributeWeight   = 1
)

// Matrix holds one TF-IDF vector per product together with a stable
// product-id <-> row bijection.
type Matrix struct {
	vectors []Vector
	ids     []int64
	rows    map[int64]int
	vocab   map[string]int
}

func (m *Matrix) Len() int { return len(m.ids) }

// Vector returns the content vector for a product, reporting whether the
// product is part of the matrix.
func (m *Matrix) Vector(productID int64) (Vector, bool) {
	row, ok := m.rows[productID]
	if !ok {
		return nil, false
	}
	return m.vectors[row], true
}

// ProductID maps a row index back to its product id.
func (m *Matrix) ProductID(row int) int64 { return m.ids[row] }

// VocabularySize reports the number of retained terms.
func (m *Matrix) VocabularySize() int { return len(m.vocab) }

type Extractor struct {
	maxFeatures int
}

func NewExtractor() *Extractor {
	return &Extractor{maxFeatures: MaxFeatures}
}

// Fit builds the TF-IDF matrix over a catalog snapshot. A product with no
// usable text yields a zero vector; it stays in the bijection so lookups
// never fail, they just degrade to similarity 0.
func (e *Extractor) Fit(products []domain.Product) *Matrix {
	m := &Matrix{
		vectors: make([]Vector, len(products)),
		ids:     make([]int64, len(products)),
		rows:    make(map[int64]int, len(products)),
		vocab:   make(map[string]int),
	}

	// Term counts per document and document frequency per term.
	docs := make([]map[string]int, len(products))
	df := make(map[string]int)
	for i, p := range products {
		m.ids[i] = p.ID
		m.rows[p.ID] = i

		counts := make(map[string]int)
		for _, term := range Terms(Tokenize(productDocument(p))) {
			counts[term]++
		}
		docs[i] = counts
		for term := range counts {
			df[term]++
		}
	}

	// Bound the vocabulary: keep the most frequent terms across documents,
	// ties broken lexicographically for a stable result.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > e.maxFeatures {
		terms = terms[:e.maxFeatures]
	}
	for idx, term := range terms {
		m.vocab[term] = idx
	}

	n := float64(len(products))
	for i, counts := range docs {
		vec := make(Vector)
		for term, tf := range counts {
			idx, ok := m.vocab[term]
			if !ok {
				continue
			}
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			vec[idx] = float64(tf) * idf
		}
		// L2-normalize so cosine reduces to a dot product.
		if norm := vec.Norm(); norm > 0 {
			for idx := range vec {
				vec[idx] /= norm
			}
		}
		m.vectors[i] = vec
	}

	return m
}

// productDocument concatenates the weighted text fields of a product.
func productDocument(p domain.Product) string {
	var b strings.Builder
	repeat(&b, p.Name, nameWeight)
	repeat(&b, p.Description, descriptionWeight)
	repeat(&b, p.Category, categoryWeight)
	for _, tag := range p.Tags {
		repeat(&b, tag, tagWeight)
	}
	for _, attr := range p.Attributes {
		repeat(&b, attr.Name+"_"+attr.Value, attributeWeight)
	}
	return b.String()
}

func repeat(b *strings.Builder, s string, n int) {
	if s == "" {
		return
	}
	for i := 0; i < n; i++ {
		b.WriteString(s)
		b.WriteByte(' ')
	}
}
