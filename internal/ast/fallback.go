//go:build !cgo

package ast

import (
	"context"
	"fmt"
)

// unavailableParser is used when CGO is disabled. A lossy fallback could
// silently corrupt stub files, so parsing refuses outright.
type unavailableParser struct{}

func NewParser() Parser {
	return &unavailableParser{}
}

func (p *unavailableParser) Parse(ctx context.Context, content []byte) (*Node, error) {
	return nil, fmt.Errorf("tree-sitter parser requires CGO; rebuild with CGO_ENABLED=1")
}

func (p *unavailableParser) Available() bool {
	return false
}
