package embedpipeline

import (
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
)

// sparseVocabSpace bounds the hashed token index space shared by every
// book's BM25 fit and by query-time sparse vectors, so that a sparse
// vector produced at query time lands in the same coordinate space as
// the sparse vectors already upserted for every book, even though each
// book's BM25 model is fitted independently over its own chunks.
const sparseVocabSpace = 1 << 20

// hashToken maps a token to a stable index in [0, sparseVocabSpace),
// used instead of a per-fit sequential vocabulary index so sparse
// vectors stay comparable across independently-fitted books.
func hashToken(tok string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	return int(h.Sum32() % sparseVocabSpace)
}

// BM25Config tunes the Okapi BM25 smoothing constants. Defaults match
// the standard k1=1.5, b=0.75 values.
type BM25Config struct {
	K1 float64
	B  float64
}

// DefaultBM25Config returns the standard smoothing constants.
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.5, B: 0.75}
}

var reToken = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize splits text into lowercased word tokens, treating any run of
// letters or digits (Arabic or Latin) as one token and discarding
// punctuation and whitespace.
func tokenize(text string) []string {
	matches := reToken.FindAllString(text, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = strings.ToLower(m)
	}
	return out
}

// FitBM25 fits an Okapi BM25 model over chunks (one book's own chunk
// set, per spec) and returns one sparse vector per chunk, keyed by
// hashToken(term). The idf and average document length come from this
// chunk set alone, but the indices do not: the same word gets the same
// index in every call, so vectors from independently fitted books
// share one coordinate space.
func FitBM25(chunks []string, cfg BM25Config) []map[int]float64 {
	if cfg.K1 == 0 && cfg.B == 0 {
		cfg = DefaultBM25Config()
	}

	docTokens := make([][]string, len(chunks))
	docFreq := make(map[string]int)
	vocabSeen := make(map[string]struct{})
	totalLen := 0

	for i, c := range chunks {
		toks := tokenize(c)
		docTokens[i] = toks
		totalLen += len(toks)

		seen := make(map[string]struct{}, len(toks))
		for _, tok := range toks {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
			vocabSeen[tok] = struct{}{}
		}
	}

	vocab := make([]string, 0, len(vocabSeen))
	for tok := range vocabSeen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	vocabIndex := make(map[string]int, len(vocab))
	for _, tok := range vocab {
		vocabIndex[tok] = hashToken(tok)
	}

	n := len(chunks)
	avgLen := 0.0
	if n > 0 {
		avgLen = float64(totalLen) / float64(n)
	}

	idf := make(map[string]float64, len(vocab))
	for _, tok := range vocab {
		df := float64(docFreq[tok])
		idf[tok] = math.Log(1 + (float64(n)-df+0.5)/(df+0.5))
	}

	vectors := make([]map[int]float64, n)
	for i, toks := range docTokens {
		termFreq := make(map[string]int, len(toks))
		for _, tok := range toks {
			termFreq[tok]++
		}

		docLen := float64(len(toks))
		vec := make(map[int]float64, len(termFreq))
		for tok, tf := range termFreq {
			tfFloat := float64(tf)
			denom := tfFloat + cfg.K1*(1-cfg.B+cfg.B*docLen/maxFloat(avgLen, 1))
			score := idf[tok] * (tfFloat * (cfg.K1 + 1)) / denom
			if score > 0 {
				vec[vocabIndex[tok]] = score
			}
		}
		vectors[i] = vec
	}

	return vectors
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// QuerySparseVector builds a sparse vector for a raw query string in
// the same hashed coordinate space FitBM25 uses, so a query issued
// against the vector store's sparse_vector field can be compared
// against chunks whose BM25 model was fitted independently per book.
// It has no corpus statistics to draw an idf from, so it weights by
// augmented term frequency alone (0.5 + 0.5*tf/max(tf)), which is the usual
// fallback when a query is scored against a document BM25 index
// without its own document-frequency table.
func QuerySparseVector(query string) map[int]float64 {
	toks := tokenize(query)
	if len(toks) == 0 {
		return map[int]float64{}
	}

	termFreq := make(map[string]int, len(toks))
	maxTF := 0
	for _, tok := range toks {
		termFreq[tok]++
		if termFreq[tok] > maxTF {
			maxTF = termFreq[tok]
		}
	}

	vec := make(map[int]float64, len(termFreq))
	for tok, tf := range termFreq {
		vec[hashToken(tok)] = 0.5 + 0.5*float64(tf)/float64(maxTF)
	}
	return vec
}
