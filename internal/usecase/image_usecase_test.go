package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

func TestAttach_LimitsBatchToThree(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	uploads := []entity.Upload{
		{Filename: "a.png", Data: pngBlob("a")},
		{Filename: "b.png", Data: pngBlob("b")},
		{Filename: "c.png", Data: pngBlob("c")},
		{Filename: "d.png", Data: pngBlob("d")},
		{Filename: "e.png", Data: pngBlob("e")},
	}
	result, err := f.images.Attach(context.Background(), sid, "1001", uploads)
	require.NoError(t, err)

	assert.True(t, result.Found)
	assert.Equal(t, []string{
		filepath.Join(f.imageDir, "1001_1_a.png"),
		filepath.Join(f.imageDir, "1001_2_b.png"),
		filepath.Join(f.imageDir, "1001_3_c.png"),
	}, result.Saved)
	assert.Equal(t, []string{"d.png", "e.png"}, result.Ignored)
	assert.Empty(t, result.Rejected)
	assert.Equal(t, result.Saved, f.rows(t, sid)[0].ImageRefs)

	entries, err := os.ReadDir(f.imageDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAttach_AppendsUpToTheLimit(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldImages, "old/1.png;old/2.png"))

	result, err := f.images.Attach(ctx, sid, "1001", []entity.Upload{
		{Filename: "new.jpg", Data: jpegBlob("n")},
		{Filename: "extra.jpg", Data: jpegBlob("x")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(f.imageDir, "1001_3_new.jpg")}, result.Saved)
	assert.Equal(t, []string{"extra.jpg"}, result.Ignored)
	assert.Equal(t, []string{"old/1.png", "old/2.png", filepath.Join(f.imageDir, "1001_3_new.jpg")}, result.ImageRefs)
}

func TestAttach_FullRowIgnoresEverything(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldImages, "1.png;2.png;3.png"))

	result, err := f.images.Attach(ctx, sid, "1001", []entity.Upload{{Filename: "a.png", Data: pngBlob("a")}})
	require.NoError(t, err)
	assert.Empty(t, result.Saved)
	assert.Equal(t, []string{"a.png"}, result.Ignored)
	assert.NoDirExists(t, f.imageDir)
}

// Two JPEGs attached to 1001, saved, then read back by a fresh session.
func TestAttach_TwoJPEGsSurviveSaveAndReload(t *testing.T) {
	f := newFixture(t, nil)
	f.writeCatalog(t, "Rua,Código,Descrição,Imagem do produto\nA1,1001,Cabo USB-C 1m,\nA2,2001,Carregador,\n")
	ctx := context.Background()
	sid := f.open(t)

	result, err := f.images.Attach(ctx, sid, "1001", []entity.Upload{
		{Filename: "a.jpg", Data: jpegBlob("a")},
		{Filename: "b.jpg", Data: jpegBlob("b")},
	})
	require.NoError(t, err)
	require.Len(t, result.Saved, 2)

	_, err = f.catalog.Save(ctx, sid)
	require.NoError(t, err)

	raw, err := os.ReadFile(f.catalogPath)
	require.NoError(t, err)
	want := filepath.Join(f.imageDir, "1001_1_a.jpg") + ";" + filepath.Join(f.imageDir, "1001_2_b.jpg")
	assert.Contains(t, string(raw), want)

	reloaded := f.open(t)
	rows := f.rows(t, reloaded)
	require.Len(t, rows, 2)
	assert.Equal(t, result.Saved, rows[0].ImageRefs)
	assert.Nil(t, rows[1].ImageRefs)

	for _, path := range rows[0].ImageRefs {
		assert.FileExists(t, path)
	}
}

func TestAttach_RejectsWrongTypes(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	result, err := f.images.Attach(context.Background(), sid, "1001", []entity.Upload{
		{Filename: "manual.pdf", Data: []byte("%PDF-1.4")},
		{Filename: "fake.png", Data: []byte("just text")},
		{Filename: "photo.png", Data: pngBlob("ok")},
	})
	require.NoError(t, err)

	require.Len(t, result.Rejected, 2)
	assert.Equal(t, "manual.pdf", result.Rejected[0].Filename)
	assert.Equal(t, "fake.png", result.Rejected[1].Filename)
	assert.Equal(t, []string{filepath.Join(f.imageDir, "1001_1_photo.png")}, result.Saved)
}

func TestAttach_RejectedFilesDoNotUseSlots(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	result, err := f.images.Attach(context.Background(), sid, "1001", []entity.Upload{
		{Filename: "bad.gif", Data: []byte("GIF89a")},
		{Filename: "a.png", Data: pngBlob("a")},
		{Filename: "b.png", Data: pngBlob("b")},
		{Filename: "c.png", Data: pngBlob("c")},
		{Filename: "d.png", Data: pngBlob("d")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(f.imageDir, "1001_1_a.png"),
		filepath.Join(f.imageDir, "1001_2_b.png"),
		filepath.Join(f.imageDir, "1001_3_c.png"),
	}, result.Saved)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "bad.gif", result.Rejected[0].Filename)
	assert.Equal(t, []string{"d.png"}, result.Ignored)
}

func TestAttach_PartialFailureKeepsEarlierFiles(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	require.NoError(t, os.MkdirAll(f.imageDir, 0o755))
	occupied := filepath.Join(f.imageDir, "1001_2_b.png")
	require.NoError(t, os.WriteFile(occupied, []byte("someone else"), 0o644))

	result, err := f.images.Attach(context.Background(), sid, "1001", []entity.Upload{
		{Filename: "a.png", Data: pngBlob("a")},
		{Filename: "b.png", Data: pngBlob("b")},
		{Filename: "c.png", Data: pngBlob("c")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(f.imageDir, "1001_1_a.png"),
		filepath.Join(f.imageDir, "1001_2_c.png"),
	}, result.Saved)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "b.png", result.Rejected[0].Filename)
	assert.Contains(t, result.Rejected[0].Reason, entity.ErrNameCollision.Error())

	data, err := os.ReadFile(occupied)
	require.NoError(t, err)
	assert.Equal(t, "someone else", string(data))
}

func TestAttach_IdenticalFileIsReused(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	require.NoError(t, os.MkdirAll(f.imageDir, 0o755))
	existing := filepath.Join(f.imageDir, "1001_1_a.png")
	require.NoError(t, os.WriteFile(existing, pngBlob("a"), 0o644))

	result, err := f.images.Attach(context.Background(), sid, "1001", []entity.Upload{{Filename: "a.png", Data: pngBlob("a")}})
	require.NoError(t, err)
	assert.Equal(t, []string{existing}, result.Saved)
}

func TestAttach_UnknownCode(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	result, err := f.images.Attach(context.Background(), sid, "9999", []entity.Upload{{Filename: "a.png", Data: pngBlob("a")}})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Saved)
	assert.NoDirExists(t, f.imageDir)

	session, err := f.catalog.Session(context.Background(), sid)
	require.NoError(t, err)
	assert.False(t, session.Dirty)
}

func TestAttach_NoUploads(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	_, err := f.images.Attach(context.Background(), sid, "1001", nil)
	assert.ErrorIs(t, err, entity.ErrNoUploads)
}

func TestAttach_FirstMatchingRowWins(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	_, err := f.catalog.AddRow(ctx, sid, entity.Product{Code: "1001", Description: "duplicate"})
	require.NoError(t, err)

	_, err = f.images.Attach(ctx, sid, "1001", []entity.Upload{{Filename: "a.png", Data: pngBlob("a")}})
	require.NoError(t, err)

	rows := f.rows(t, sid)
	assert.Len(t, rows[0].ImageRefs, 1)
	assert.Empty(t, rows[2].ImageRefs)
}

func TestImageFileName(t *testing.T) {
	tests := []struct {
		code     string
		ordinal  int
		original string
		want     string
	}{
		{"1001", 1, "foto.jpg", "1001_1_foto.jpg"},
		{"10/01", 2, "../minha foto.JPG", "1001_2_minhafoto.JPG"},
		{"AB-1", 3, "ção.png", "AB1_3_o.png"},
		{"", 1, "x.png", "item_1_x.png"},
		{"1001", 1, "日本.png", "1001_1_.png"},
		{"1001", 1, "...", "1001_1_image"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, imageFileName(tt.code, tt.ordinal, tt.original), tt.original)
	}
}

func TestCheckImage(t *testing.T) {
	format, err := checkImage("a.PNG", pngBlob(""))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	format, err = checkImage("a.jpeg", jpegBlob(""))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, err = checkImage("a.png", jpegBlob(""))
	assert.ErrorIs(t, err, entity.ErrUnsupportedImage)

	_, err = checkImage("a.gif", []byte("GIF89a"))
	assert.ErrorIs(t, err, entity.ErrUnsupportedImage)

	_, err = checkImage("a.jpg", nil)
	assert.ErrorIs(t, err, entity.ErrUnsupportedImage)
}

type fakeGenerator struct {
	code   string
	images []repository.ImageBlob
}

func (g *fakeGenerator) DescribeProduct(ctx context.Context, code string, images []repository.ImageBlob) (string, error) {
	g.code = code
	g.images = images
	return "Cabo USB-C branco", nil
}

func TestSuggestDescription(t *testing.T) {
	gen := &fakeGenerator{}
	f := newFixture(t, gen)
	sid := f.open(t)
	ctx := context.Background()

	_, err := f.images.SuggestDescription(ctx, sid, 0)
	assert.Error(t, err, "row without images")

	_, err = f.images.Attach(ctx, sid, "1001", []entity.Upload{{Filename: "a.jpg", Data: jpegBlob("a")}})
	require.NoError(t, err)
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldImages,
		strings.Join(append(f.rows(t, sid)[0].ImageRefs, "missing.png"), ";")))

	text, err := f.images.SuggestDescription(ctx, sid, 0)
	require.NoError(t, err)
	assert.Equal(t, "Cabo USB-C branco", text)
	assert.Equal(t, "1001", gen.code)
	require.Len(t, gen.images, 1)
	assert.Equal(t, "jpeg", gen.images[0].Format)

	_, err = f.images.SuggestDescription(ctx, sid, 10)
	assert.ErrorIs(t, err, entity.ErrRowOutOfRange)
}

func TestSuggestDescription_NotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)

	_, err := f.images.SuggestDescription(context.Background(), sid, 0)
	assert.ErrorIs(t, err, entity.ErrNotConfigured)
}

func TestRowImage(t *testing.T) {
	f := newFixture(t, nil)
	sid := f.open(t)
	ctx := context.Background()

	legacy := filepath.Join(t.TempDir(), "legacy", "1001_1_a.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0o755))
	require.NoError(t, os.WriteFile(legacy, pngBlob("a"), 0o644))
	notes := filepath.Join(filepath.Dir(legacy), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("secret"), 0o644))
	missing := filepath.Join(f.imageDir, "1001_2_b.png")

	refs := strings.Join([]string{legacy, missing, notes}, ";")
	require.NoError(t, f.catalog.UpdateCell(ctx, sid, 0, entity.FieldImages, refs))

	path, err := f.images.RowImage(ctx, sid, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, legacy, path)

	_, err = f.images.RowImage(ctx, sid, 0, 1)
	assert.ErrorIs(t, err, entity.ErrImageNotFound)
	_, err = f.images.RowImage(ctx, sid, 0, 2)
	assert.ErrorIs(t, err, entity.ErrUnsupportedImage)
	_, err = f.images.RowImage(ctx, sid, 0, 3)
	assert.ErrorIs(t, err, entity.ErrImageNotFound)
	_, err = f.images.RowImage(ctx, sid, 1, 0)
	assert.ErrorIs(t, err, entity.ErrImageNotFound)
	_, err = f.images.RowImage(ctx, sid, 9, 0)
	assert.ErrorIs(t, err, entity.ErrRowOutOfRange)
}
