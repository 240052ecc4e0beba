package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

func TestOpenSession_MissingFileUsesSeed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	session, err := f.catalog.OpenSession(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(sampleRows, session.Catalog.Products); diff != "" {
		t.Errorf("seed rows differ (-want +got):\n%s", diff)
	}
	assert.False(t, session.Dirty)
	require.Len(t, session.Notices, 1)
	assert.Equal(t, entity.NoticeInfo, session.Notices[0].Level)
	assert.Contains(t, session.Notices[0].Text, f.catalogPath)

	notices, err := f.catalog.PopNotices(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, notices, 1)
	notices, err = f.catalog.PopNotices(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestOpenSession_WarningsBecomeNotices(t *testing.T) {
	f := newFixture(t, nil)
	f.writeCatalog(t, "Rua,Código,Descrição,Imagem do produto\nA1,1,a,,extra\nA2,2,b,\n")

	session, err := f.catalog.OpenSession(context.Background())
	require.NoError(t, err)

	require.Len(t, session.Catalog.Products, 1)
	require.Len(t, session.Notices, 1)
	assert.Equal(t, entity.NoticeWarning, session.Notices[0].Level)
	assert.Contains(t, session.Notices[0].Text, "line 2")
}

func TestEdits(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldDescription, "linha 1\r\nlinha 2"))
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldImages, " a.png ; ;b.png"))
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 1, entity.FieldLocation, "Z9"))

	index, err := f.catalog.AddRow(ctx, sid, entity.Product{Code: "3001"})
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	require.NoError(t, f.catalog.RemoveRow(ctx, sid, 1))

	session, err := f.catalog.Session(ctx, sid)
	require.NoError(t, err)
	assert.True(t, session.Dirty)
	assert.Equal(t, []entity.Product{
		{Location: "A1", Code: "1001", Description: "linha 1\nlinha 2", ImageRefs: []string{"a.png", "b.png"}},
		{Code: "3001"},
	}, session.Catalog.Products)

	assert.ErrorIs(t, f.catalog.UpdateCell(ctx, sid, 5, entity.FieldCode, "x"), entity.ErrRowOutOfRange)
	assert.ErrorIs(t, f.catalog.UpdateCell(ctx, sid, 0, entity.Field("price"), "x"), entity.ErrUnknownField)
	assert.ErrorIs(t, f.catalog.RemoveRow(ctx, sid, -1), entity.ErrRowOutOfRange)
	assert.ErrorIs(t, f.catalog.UpdateRow(ctx, sid, 2, entity.Product{}), entity.ErrRowOutOfRange)
}

func TestReplaceRows_UnchangedGridStaysClean(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.ReplaceRows(ctx, sid, sampleRows))
	session, err := f.catalog.Session(ctx, sid)
	require.NoError(t, err)
	assert.False(t, session.Dirty)

	changed := []entity.Product{{Location: "Q", Code: "1", Description: "x\r\ny", ImageRefs: []string{}}}
	require.NoError(t, f.catalog.ReplaceRows(ctx, sid, changed))
	session, err = f.catalog.Session(ctx, sid)
	require.NoError(t, err)
	assert.True(t, session.Dirty)
	assert.Equal(t, []entity.Product{{Location: "Q", Code: "1", Description: "x\ny"}}, session.Catalog.Products)
}

func TestSaveAndReload(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldDescription, "Cabo, \"reforçado\""))
	rows, err := f.catalog.Save(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	session, err := f.catalog.Session(ctx, sid)
	require.NoError(t, err)
	assert.False(t, session.Dirty)

	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldDescription, "discarded"))
	n, err := f.catalog.Reload(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Cabo, \"reforçado\"", f.rows(t, sid)[0].Description)

	other := f.open(t)
	if diff := cmp.Diff(f.rows(t, sid), f.rows(t, other)); diff != "" {
		t.Errorf("second session differs (-first +second):\n%s", diff)
	}
}

func TestReload_MissingFile(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	_, err := f.catalog.Reload(context.Background(), sid)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSave_FailureKeepsEdits(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, os.RemoveAll(filepath.Dir(f.catalogPath)))
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldCode, "1002"))

	_, err := f.catalog.Save(ctx, sid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), f.catalogPath)

	session, err := f.catalog.Session(ctx, sid)
	require.NoError(t, err)
	assert.True(t, session.Dirty)
	assert.Equal(t, "1002", session.Catalog.Products[0].Code)
}

func TestReset(t *testing.T) {
	f := newFixture(t, nil)
	f.writeCatalog(t, "Rua,Código,Descrição,Imagem do produto\nZ,9,x,\n")
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.Reset(ctx, sid))
	session, err := f.catalog.Session(ctx, sid)
	require.NoError(t, err)
	assert.True(t, session.Dirty)
	assert.Equal(t, sampleRows, session.Catalog.Products)

	// the seed table itself is never handed out
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldCode, "changed"))
	assert.Equal(t, "1001", sampleRows[0].Code)

	raw, err := os.ReadFile(f.catalogPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Z,9,x,")
}

func TestExportImport(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldImages, "img/1001_1_a.png;img/1001_2_b.jpg"))
	want := f.rows(t, sid)

	for _, format := range []struct {
		format   ExportFormat
		filename string
	}{
		{ExportCSV, "catalog.csv"},
		{ExportXLSX, "catalog.xlsx"},
	} {
		data, err := f.catalog.Export(ctx, sid, format.format)
		require.NoError(t, err)

		target := f.open(t)
		n, err := f.catalog.Import(ctx, target, format.filename, data)
		require.NoError(t, err)
		assert.Equal(t, len(want), n)
		if diff := cmp.Diff(want, f.rows(t, target)); diff != "" {
			t.Errorf("%s import differs (-want +got):\n%s", format.format, diff)
		}
	}

	_, err := f.catalog.Export(ctx, sid, ExportFormat("pdf"))
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
	_, err = f.catalog.Import(ctx, sid, "catalog.txt", []byte("x"))
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestRenderText(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	text, err := f.catalog.RenderText(context.Background(), sid)
	require.NoError(t, err)
	for _, want := range []string{entity.ColumnLocation, entity.ColumnCode, "1001", "Cabo USB-C 1m", "2001"} {
		assert.Contains(t, text, want)
	}
}

func TestActivityIsRecorded(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.Reset(ctx, sid))
	_, err := f.catalog.Save(ctx, sid)
	require.NoError(t, err)

	actions, err := f.catalog.Activity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, actions, 2)

	names := []string{actions[0].Action, actions[1].Action}
	assert.ElementsMatch(t, []string{"reset", "save"}, names)
	assert.Equal(t, sid, actions[0].SessionID)
}

func TestCloseAndExpireSessions(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.CloseSession(ctx, sid))
	_, err := f.catalog.Session(ctx, sid)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	removed, err := f.catalog.ExpireSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
