package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/storage"
	"github.com/starford/casedesk/internal/store"
	"github.com/starford/casedesk/internal/testutil"
)

var fixedNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type recorder struct{ events []string }

func (r *recorder) PublishChange(entity, kind, id string) {
	r.events = append(r.events, entity+"."+kind+":"+id)
}

func setup(t *testing.T) (*Service, *store.DB, storage.Provider, *recorder) {
	t.Helper()
	db := testutil.TestDB(t)
	_, files := testutil.TestFiles(t)
	rec := &recorder{}
	svc := NewService(db, files, WithEvents(rec), WithClock(func() time.Time { return fixedNow }))

	c := &models.Case{
		ID: "case-1", CaseNumber: "NWT-2025-001", Territory: models.TerritoryNWT,
		Employer: "Diavik", Worker: "Lee", Status: models.StatusOpen, Priority: models.PriorityHigh,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	c.EnsureCollections()
	require.NoError(t, db.InsertCase(context.Background(), c))
	return svc, db, files, rec
}

func harness() ExhibitInput {
	return ExhibitInput{
		CaseID:          "case-1",
		Type:            "physical",
		Category:        "Safety Equipment",
		Description:     "Torn fall-arrest harness",
		SeizedBy:        "Officer Kline",
		SeizedLocation:  "Level 3 scaffold",
		CurrentLocation: "Evidence Room A",
		ConditionNotes:  "Frayed webbing",
	}
}

func TestAddExhibitDefaultsAndInitialCustody(t *testing.T) {
	svc, _, _, rec := setup(t)
	ctx := context.Background()

	e, err := svc.AddExhibit(ctx, harness())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(e.ID, "exhibit-"))
	assert.Len(t, e.ID, len("exhibit-")+8)
	assert.Equal(t, "EX-2025-0001", e.ExhibitNumber)
	assert.Equal(t, models.ExhibitPhysical, e.Type)
	assert.Equal(t, models.ExhibitInCustody, e.CurrentStatus)
	assert.Equal(t, 1, e.Quantity)
	assert.Equal(t, "item", e.Unit)
	assert.Equal(t, "2025-06-02", e.SeizedDate)

	chain, err := svc.CustodyChain(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	first := chain[0]
	assert.Equal(t, models.CustodyCreated, first.Action)
	assert.Equal(t, "Officer Kline", first.PerformedBy)
	assert.Equal(t, "Evidence Room A", first.ToLocation)
	assert.Equal(t, "Evidence collected at scene: Level 3 scaffold", first.Reason)
	assert.Equal(t, "Frayed webbing", first.ConditionAfter)
	assert.Equal(t, "2025-06-02", first.ActionDate)

	assert.Equal(t, []string{"exhibit.created:" + e.ID}, rec.events)

	second, err := svc.AddExhibit(ctx, harness())
	require.NoError(t, err)
	assert.Equal(t, "EX-2025-0002", second.ExhibitNumber)
}

func TestAddExhibitValidation(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	in := harness()
	in.Type = "ANALOG"
	_, err := svc.AddExhibit(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	in = harness()
	in.Description = "  "
	_, err = svc.AddExhibit(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	in = harness()
	in.CaseID = "missing"
	_, err = svc.AddExhibit(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLogCustodyTransfersAndReturns(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	for _, name := range []string{"Evidence Room A", "Locker 7"} {
		_, err := svc.CreateStorageLocation(ctx, models.StorageLocation{Name: name, Type: "room"})
		require.NoError(t, err)
	}
	e, err := svc.AddExhibit(ctx, harness())
	require.NoError(t, err)

	_, err = svc.LogCustody(ctx, e.ID, models.CustodyEntry{
		Action: "transferred", PerformedBy: "Officer Kline", ReceivedBy: "Clerk Ito",
		FromLocation: "Evidence Room A", ToLocation: "Locker 7", HashValue: "abc123",
	})
	require.NoError(t, err)

	got, err := svc.GetExhibit(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Locker 7", got.CurrentLocation)
	assert.Equal(t, models.ExhibitInCustody, got.CurrentStatus)

	counts := storageCounts(t, svc)
	assert.Equal(t, map[string]int{"Evidence Room A": 0, "Locker 7": 1}, counts)

	_, err = svc.LogCustody(ctx, e.ID, models.CustodyEntry{Action: models.CustodyReturned, PerformedBy: "Clerk Ito"})
	require.NoError(t, err)
	got, err = svc.GetExhibit(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExhibitReturned, got.CurrentStatus)
	assert.Equal(t, "Locker 7", got.CurrentLocation)
	assert.Equal(t, 0, storageCounts(t, svc)["Locker 7"])

	chain, err := svc.CustodyChain(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, models.CustodyTransferred, chain[1].Action)
	assert.Equal(t, "abc123", chain[1].HashValue)
	assert.Equal(t, models.CustodyReturned, chain[2].Action)
}

func TestLogCustodyErrors(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.LogCustody(ctx, "exhibit-nope", models.CustodyEntry{Action: "CHECKED_OUT", PerformedBy: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	e, err := svc.AddExhibit(ctx, harness())
	require.NoError(t, err)
	_, err = svc.LogCustody(ctx, e.ID, models.CustodyEntry{Action: "CHECKED_OUT"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.CustodyChain(ctx, "exhibit-nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorageLocations(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	loc, err := svc.CreateStorageLocation(ctx, models.StorageLocation{Name: " Vault 1 ", Type: "vault", Capacity: 20})
	require.NoError(t, err)
	assert.Equal(t, "Vault 1", loc.Name)
	assert.Equal(t, "VAULT", loc.Type)
	assert.True(t, strings.HasPrefix(loc.ID, "storage-"))

	_, err = svc.CreateStorageLocation(ctx, models.StorageLocation{Name: "Vault 1", Type: "VAULT"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = svc.CreateStorageLocation(ctx, models.StorageLocation{Name: "Shed", Type: "GARAGE"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestStatistics(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddExhibit(ctx, harness())
	require.NoError(t, err)
	in := harness()
	in.Type = models.ExhibitDigital
	in.Category = "Video"
	_, err = svc.AddExhibit(ctx, in)
	require.NoError(t, err)

	st, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalExhibits)
	assert.Equal(t, map[string]int{"PHYSICAL": 1, "DIGITAL": 1}, st.ByType)
	assert.Equal(t, map[string]int{"CUSTODY": 2}, st.ByStatus)
}

func TestAttachFile(t *testing.T) {
	svc, _, files, rec := setup(t)
	ctx := context.Background()

	in := harness()
	in.Type = models.ExhibitDigital
	in.HashValue = "supplied-by-examiner"
	e, err := svc.AddExhibit(ctx, in)
	require.NoError(t, err)

	got, err := svc.AttachFile(ctx, e.ID, "../../cctv clip.mp4", strings.NewReader("frames"))
	require.NoError(t, err)
	assert.Equal(t, e.ID+"/cctv_clip.mp4", got.DigitalFilePath)
	assert.Equal(t, "supplied-by-examiner", got.HashValue)

	data, err := files.Read(got.DigitalFilePath)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))

	abs, err := svc.AttachmentPath(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(abs, "cctv_clip.mp4"))
	assert.Contains(t, rec.events, "exhibit.updated:"+e.ID)
}

func TestAttachFileErrors(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AttachFile(ctx, "exhibit-nope", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	e, err := svc.AddExhibit(ctx, harness())
	require.NoError(t, err)
	_, err = svc.AttachFile(ctx, e.ID, "a.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.AttachmentPath(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	noFiles := NewService(svc.db, nil)
	_, err = noFiles.AttachFile(ctx, e.ID, "a.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrInvalid))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":         "report.pdf",
		"../../etc/passwd":   "passwd",
		`C:\temp\scan 1.png`: "scan_1.png",
		"photo (1).jpg":      "photo__1_.jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
	assert.NotEmpty(t, SanitizeFilename(".."))
	assert.NotEqual(t, "..", SanitizeFilename(".."))
}

func storageCounts(t *testing.T, svc *Service) map[string]int {
	t.Helper()
	locs, err := svc.ListStorageLocations(context.Background())
	require.NoError(t, err)
	out := map[string]int{}
	for _, l := range locs {
		out[l.Name] = l.CurrentCount
	}
	return out
}
