package blob_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"freelance/internal/blob"
	"freelance/models"
)

func TestObjectKey(t *testing.T) {
	key := blob.ObjectKey("Site Redesign", models.StageFinal, "2026-08-30_14-05", "report.pdf")
	require.Equal(t, "Site Redesign/final/2026-08-30_14-05/report.pdf", key)
}

func TestStagePrefix(t *testing.T) {
	require.Equal(t, "Site Redesign/in_process/", blob.StagePrefix("Site Redesign", models.StageInProcess))
}

func TestDateBucket(t *testing.T) {
	ts := time.Date(2026, 8, 30, 14, 5, 59, 0, time.UTC)
	// точность до минуты, секунды отбрасываются
	require.Equal(t, "2026-08-30_14-05", blob.DateBucket(ts))
}
