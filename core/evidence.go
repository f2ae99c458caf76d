package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/logging"
	"github.com/AmirTlinov/compas/schema"
)

// HashBytes returns the hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// StderrSummary is the one-line status an adapter writes to stderr.
func StderrSummary(result schema.AdapterResult) string {
	return fmt.Sprintf("%s status=%s findings=%d", strings.ToUpper(result.PluginID), result.Status, len(result.Findings))
}

// SealEvidence fills in the evidence block of result and returns the sealed copy.
// stdout_hash covers the document with every hash empty; report_hash covers the
// document once stdout_hash and stderr_hash are set. The input is not modified.
func SealEvidence(result schema.AdapterResult, commitSHA, stderrLine string) (schema.AdapterResult, error) {
	sealed := result
	if commitSHA == "" {
		commitSHA = schema.CommitUnknown
	}
	sealed.Evidence = schema.Evidence{
		ReportPath: result.Evidence.ReportPath,
		CommitSHA:  commitSHA,
	}

	body, err := schema.CanonicalJSON(sealed)
	if err != nil {
		return result, fmt.Errorf("failed to serialize result body: %w", err)
	}
	sealed.Evidence.StdoutHash = HashBytes(body)
	sealed.Evidence.StderrHash = HashBytes([]byte(stderrLine))

	withFirst, err := schema.CanonicalJSON(sealed)
	if err != nil {
		return result, fmt.Errorf("failed to serialize sealed result: %w", err)
	}
	sealed.Evidence.ReportHash = HashBytes(withFirst)
	return sealed, nil
}

// VerifyEvidence recomputes every digest of a sealed result.
func VerifyEvidence(result schema.AdapterResult, stderrLine string) error {
	resealed, err := SealEvidence(result, result.Evidence.CommitSHA, stderrLine)
	if err != nil {
		return err
	}
	got, want := result.Evidence, resealed.Evidence
	switch {
	case got.StdoutHash != want.StdoutHash:
		return fmt.Errorf("stdout_hash mismatch: have %s, want %s", got.StdoutHash, want.StdoutHash)
	case got.StderrHash != want.StderrHash:
		return fmt.Errorf("stderr_hash mismatch: have %s, want %s", got.StderrHash, want.StderrHash)
	case got.ReportHash != want.ReportHash:
		return fmt.Errorf("report_hash mismatch: have %s, want %s", got.ReportHash, want.ReportHash)
	}
	return nil
}

// ResolveCommitSHA returns HEAD of repoPath, or "unknown" when it cannot be read.
func ResolveCommitSHA(ctx context.Context, client contract.GitClient, repoPath string) string {
	if client == nil {
		return schema.CommitUnknown
	}
	sha, err := client.GetRepoHash(ctx, repoPath)
	if err != nil || strings.TrimSpace(sha) == "" {
		logging.Logger.Debugw("commit sha unavailable", "repo", repoPath, "err", err)
		return schema.CommitUnknown
	}
	return strings.TrimSpace(sha)
}
