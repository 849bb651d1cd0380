package mongo

import (
	"github.com/poiesic/crawlvec/core"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pageDoc is a document in the "urls" collection.
type pageDoc struct {
	ID  string `bson:"id"`
	URL string `bson:"url"`
}

// contentDoc is a document in the "contents" collection.
type contentDoc struct {
	ID       string           `bson:"id"`
	URLID    string           `bson:"url_id"`
	TextGzip primitive.Binary `bson:"text_gzip"`
}

// crawlFileDoc is a document in the "crawl_files" collection.
type crawlFileDoc struct {
	ID  string `bson:"id"`
	Ref string `bson:"ref,omitempty"`
}

func toPageDoc(page *core.Page) pageDoc {
	return pageDoc{ID: string(page.Id), URL: page.URL}
}

func (d pageDoc) toPage() *core.Page {
	return &core.Page{Id: core.ID(d.ID), URL: d.URL}
}

func toContentDoc(record *core.ContentRecord) contentDoc {
	return contentDoc{
		ID:       string(record.Id),
		URLID:    string(record.PageId),
		TextGzip: primitive.Binary{Subtype: 0x00, Data: record.TextGzip},
	}
}

func (d contentDoc) toContentRecord() *core.ContentRecord {
	return &core.ContentRecord{
		Id:       core.ID(d.ID),
		PageId:   core.ID(d.URLID),
		TextGzip: d.TextGzip.Data,
	}
}

func toCrawlFileDoc(entry *core.LedgerEntry) crawlFileDoc {
	return crawlFileDoc{ID: string(entry.Id), Ref: string(entry.Ref)}
}

// orderContents returns the records for docs in the order of ids, skipping
// ids with no document.
func orderContents(ids []core.ID, docs []contentDoc) []*core.ContentRecord {
	byID := make(map[string]contentDoc, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	out := make([]*core.ContentRecord, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[string(id)]; ok {
			out = append(out, d.toContentRecord())
		}
	}
	return out
}
