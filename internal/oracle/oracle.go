// Package oracle answers whether a defect class is still present in a text.
package oracle

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/findings"
	"github.com/scan-io-git/remedy/internal/scanner"
)

// Oracle verifies patches by re-scanning the whole document.
//
// Matching is by defect class only: a document where one instance of a class
// was fixed but another remains is still reported as unpatched, and a
// document where the class moved elsewhere is reported as unpatched too.
type Oracle struct {
	scanner scanner.Scanner
	logger  hclog.Logger
}

// New creates an Oracle over s.
func New(s scanner.Scanner, logger hclog.Logger) *Oracle {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Oracle{scanner: s, logger: logger.Named("oracle")}
}

// Verify scans text and returns true when no finding carries findingID.
// Scanner failures are returned unchanged so callers can tell them apart
// from a negative verdict.
func (o *Oracle) Verify(ctx context.Context, text, findingID string) (bool, error) {
	found, err := o.scanner.Scan(ctx, text)
	if err != nil {
		return false, fmt.Errorf("verification scan failed: %w", err)
	}

	patched := !findings.Contains(found, findingID)
	o.logger.Debug("verification finished", "finding_id", findingID, "patched", patched, "remaining", len(found))
	return patched, nil
}
