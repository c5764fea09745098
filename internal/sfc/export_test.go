package sfc

import "github.com/rs/zerolog"

// NewWithLimits is a parser with a smaller cache
func NewWithLimits(log zerolog.Logger, entries, size int) *Parser {
	return &Parser{log, newCache(entries, size)}
}

// Cached is the number of cached results
func (p *Parser) Cached() int {
	return p.cache.Len()
}
