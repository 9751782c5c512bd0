package reference

import (
	"context"
	"strings"
	"time"

	"ai-affairs-gateway/internal/pkg/logger"
	"ai-affairs-gateway/internal/repository/contract"
	"ai-affairs-gateway/pkg/ragflow"

	"github.com/patrickmn/go-cache"
)

// UnresolvedURL marks a cited document whose title has no row in the lookup
// store. Callers ship it to the client as-is.
const UnresolvedURL = "URL not found"

// DocumentReference is one cited document with its persisted download URL.
type DocumentReference struct {
	DocName string `json:"docName"`
	PdfUrl  string `json:"pdfUrl"`
}

// Resolver maps the document names cited in a completion to download URLs via
// a single batch query per turn. Resolved URLs are memoized for a short
// window since the same documents tend to be cited across consecutive turns.
type Resolver struct {
	files contract.AffairsFileRepository
	urls  *cache.Cache
	log   logger.ILogger
}

func NewResolver(files contract.AffairsFileRepository, log logger.ILogger) *Resolver {
	return &Resolver{
		files: files,
		urls:  cache.New(5*time.Minute, 10*time.Minute),
		log:   log,
	}
}

// citation pairs a cited name with the store key derived from it. The payload
// keeps the name exactly as cited; stripping is for the lookup only.
type citation struct {
	name  string
	title string
}

// Resolve returns one reference per distinct cited document, in the order the
// citations first appear. A nil or answerless completion resolves to nil.
func (r *Resolver) Resolve(ctx context.Context, data *ragflow.CompletionData) ([]DocumentReference, error) {
	if data == nil || data.Answer == "" || data.Reference == nil {
		return nil, nil
	}

	var cited []citation
	seen := map[string]bool{}
	for _, agg := range data.Reference.DocAggs {
		if agg.DocName == "" || seen[agg.DocName] {
			continue
		}
		seen[agg.DocName] = true
		cited = append(cited, citation{name: agg.DocName, title: stripExtension(agg.DocName)})
	}
	if len(cited) == 0 {
		return nil, nil
	}

	resolved := map[string]string{}
	var missing []string
	queued := map[string]bool{}
	for _, c := range cited {
		if _, done := resolved[c.title]; done || queued[c.title] {
			continue
		}
		if url, ok := r.urls.Get(c.title); ok {
			resolved[c.title] = url.(string)
		} else {
			queued[c.title] = true
			missing = append(missing, c.title)
		}
	}

	if len(missing) > 0 {
		files, err := r.files.FindAllByTitles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			// First row wins when the store holds duplicate titles.
			if _, ok := resolved[f.Title]; ok {
				continue
			}
			resolved[f.Title] = f.PdfUrl
			r.urls.SetDefault(f.Title, f.PdfUrl)
		}
	}

	refs := make([]DocumentReference, 0, len(cited))
	for _, c := range cited {
		url, ok := resolved[c.title]
		if !ok {
			r.log.Warn("reference", "Cited document has no stored URL", map[string]interface{}{
				"doc_name": c.name,
				"title":    c.title,
			})
			url = UnresolvedURL
		}
		refs = append(refs, DocumentReference{DocName: c.name, PdfUrl: url})
	}
	return refs, nil
}

// stripExtension drops everything from the last dot on, so "guide.v2.pdf"
// becomes "guide.v2". Names without a dot pass through unchanged.
func stripExtension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
