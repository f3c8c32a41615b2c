package analytics

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"certify-backend/internal/certificates"
	"certify-backend/internal/shared/auth"
	"certify-backend/internal/shared/storage/object"
	"certify-backend/internal/shared/storage/object/local"
)

func TestSubmitReviewAndSummarize(t *testing.T) {
	ctx := context.Background()
	repo := certificates.NewMemoryRepo()
	store := local.New(t.TempDir())
	lifecycle := &certificates.Service{Repo: repo, Store: store, Provider: "local", Scope: certificates.ScopeOwn}
	dashboards := &Service{Repo: repo}

	studentA := auth.Principal{ID: "A", DisplayName: "Student A", Role: auth.RoleStudent}
	reviewer := auth.Principal{ID: "r1", DisplayName: "Reviewer One", Role: auth.RoleStaff}
	payload := []byte("%PDF-1.7 java")

	cert, err := lifecycle.Submit(ctx, studentA, certificates.SubmitInput{
		Title:    "Java Cert",
		FileName: "java.pdf",
		MimeType: "application/pdf",
		Body:     bytes.NewReader(payload),
	})
	require.NoError(t, err)

	pending, err := lifecycle.List(ctx, certificates.ByStatus(certificates.StatusPending))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, cert.ID, pending[0].ID)

	verified, err := lifecycle.Review(ctx, cert.ID, reviewer, certificates.DecisionVerify, "ok")
	require.NoError(t, err)
	require.Equal(t, certificates.StatusVerified, verified.Status)
	require.Equal(t, "r1", verified.ReviewedBy)
	require.Equal(t, "ok", verified.ReviewerRemarks)

	sum, err := dashboards.StudentSummary(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, 1, sum.Total)
	require.Equal(t, 1, sum.Verified)
	require.Zero(t, sum.Pending)
	require.Zero(t, sum.Rejected)
	require.Len(t, sum.Recent, 1)
	require.Equal(t, "ok", sum.Recent[0].ReviewerRemarks)

	got, err := lifecycle.Retrieve(ctx, cert.ID, studentA, certificates.IntentView)
	require.NoError(t, err)
	body, err := io.ReadAll(got.Body)
	require.NoError(t, got.Body.Close())
	require.NoError(t, err)
	require.Equal(t, payload, body)

	require.NoError(t, lifecycle.Delete(ctx, cert.ID, studentA))
	_, err = lifecycle.Get(ctx, cert.ID, studentA)
	require.ErrorIs(t, err, certificates.ErrNotFound)
	_, err = store.Get(ctx, cert.BlobHandle)
	require.ErrorIs(t, err, object.ErrNotFound)

	sum, err = dashboards.StudentSummary(ctx, "A")
	require.NoError(t, err)
	require.Zero(t, sum.Total)
}
