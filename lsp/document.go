// Copyright © 2026 The tangolint authors

package lsp

import (
	"sort"
	"strings"
	"sync"

	"github.com/davejwalsh/tangolint/pipeline"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu         sync.Mutex
	URI        string
	LanguageID string
	Version    int32
	Content    string
}

func (d *Document) pipelineDocument() pipeline.Document {
	return pipeline.Document{URI: d.URI, LanguageID: d.LanguageID}
}

// snapshot returns the current content.
func (d *Document) snapshot() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Content
}

// lineAt returns line n of content without its terminator.
func lineAt(content string, n int) (string, bool) {
	if n < 0 {
		return "", false
	}
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(content, '\n')
		if idx < 0 {
			return "", false
		}
		content = content[idx+1:]
	}
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSuffix(content, "\r"), true
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store.
func (s *DocumentStore) Open(uri, languageID string, version int32, content string) *Document {
	doc := &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Content:    content,
	}
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync).
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.mu.Unlock()
	return doc
}

// Save replaces the content with the saved text when the client sent it.
func (s *DocumentStore) Save(uri string, text *string) *Document {
	doc := s.Get(uri)
	if doc == nil || text == nil {
		return doc
	}
	doc.mu.Lock()
	doc.Content = *text
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns the open documents sorted by URI.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}
