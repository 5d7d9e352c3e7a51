package emulator

import (
	"encoding/base64"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/toncell-lab/emubridge/cell"
)

// defaultCellCacheSize covers the handful of config and library bags
// a service typically cycles through
const defaultCellCacheSize = 32

// CellCache memoizes deserialized bags of cells by their base64 text.
// Config and library payloads are resent verbatim on most calls, so
// one cache shared across sessions skips the repeated decode. Cells
// are immutable, so sharing cached graphs across sessions is safe;
// the underlying lru.Cache is safe for concurrent use
type CellCache struct {
	cells *lru.Cache
}

// NewCellCache builds a decoded-cell cache. A non-positive size falls
// back to the default
func NewCellCache(size int) *CellCache {
	if size <= 0 {
		size = defaultCellCacheSize
	}

	cache, _ := lru.New(size)

	return &CellCache{cells: cache}
}

// decodeBase64Cell decodes a base64 bag of cells into its single root,
// serving repeated payloads from the cache
func (cc *CellCache) decodeBase64Cell(boc string) (*cell.Cell, error) {
	if cached, ok := cc.cells.Get(boc); ok {
		if c, ok := cached.(*cell.Cell); ok {
			return c, nil
		}
	}

	raw, err := base64.StdEncoding.DecodeString(boc)
	if err != nil {
		return nil, fmt.Errorf("can't decode base64 boc: %w", err)
	}

	c, err := cell.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("can't deserialize boc: %w", err)
	}

	cc.cells.Add(boc, c)

	return c, nil
}
