package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/importjs-go/importjs/pkg/util"
)

// getDefaultPoolSize mirrors the worker pool's sizing (pkg/util) so the
// export-index scan never has more goroutines than parsers to serve them.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}

// parserPool is a channel-backed, per-language pool of tree-sitter
// parsers. Parsers are created lazily up to maxSize and reused via
// acquire/release so concurrent ParserManager.Parse calls for the same
// language don't block on a single shared parser.
type parserPool struct {
	pool    chan *ts.Parser
	langPtr unsafe.Pointer
	lang    Language
	isTSX   bool
	maxSize int

	mutex   sync.Mutex
	created int

	logger *slog.Logger
}

func newParserPool(lang Language, langPtr unsafe.Pointer, isTSX bool, maxSize int, logger *slog.Logger) *parserPool {
	return &parserPool{
		pool:    make(chan *ts.Parser, maxSize),
		langPtr: langPtr,
		lang:    lang,
		isTSX:   isTSX,
		maxSize: maxSize,
		logger:  logger,
	}
}

// acquire returns an available parser, creating one if the pool hasn't
// reached maxSize yet, or blocking for a release otherwise.
func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.pool:
		return parser, nil
	default:
		return p.createParserIfNeeded()
	}
}

func (p *parserPool) createParserIfNeeded() (*ts.Parser, error) {
	p.mutex.Lock()

	if p.created < p.maxSize {
		parser := ts.NewParser()
		if parser == nil {
			p.mutex.Unlock()
			return nil, fmt.Errorf("failed to create parser")
		}

		tsLang := ts.NewLanguage(p.langPtr)
		if err := parser.SetLanguage(tsLang); err != nil {
			parser.Close()
			p.mutex.Unlock()
			return nil, fmt.Errorf("failed to set language: %w", err)
		}

		p.created++
		p.logger.Debug("created parser in pool", "language", p.lang.String(), "isTSX", p.isTSX, "pool_size", p.created)
		p.mutex.Unlock()
		return parser, nil
	}

	// maxSize reached: wait for a release rather than overcommitting CGO parsers.
	p.mutex.Unlock()
	return <-p.pool, nil
}

// release returns parser to the pool. A full pool (which shouldn't happen
// under normal acquire/release pairing) closes the parser instead of
// leaking it.
func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.pool <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "language", p.lang.String())
	}
}

// close drains and closes every parser currently in the pool. The pool
// must not be acquired from afterward.
func (p *parserPool) close() {
	close(p.pool)

	count := 0
	for parser := range p.pool {
		if parser != nil {
			parser.Close()
			count++
		}
	}

	p.logger.Debug("closed parser pool", "language", p.lang.String(), "isTSX", p.isTSX, "parsers_closed", count)
}

func (p *parserPool) getCreatedCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.created
}
