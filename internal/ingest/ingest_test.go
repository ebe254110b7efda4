package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cmstorage "github.com/chartmuseum/storage"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/drive"
	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
	"github.com/viniciushashizume/stock-insight-hub/internal/storage"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestReadCSV_Comma(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("id_item,qt_consumo\n1,10\n\n2,20\n"), "mem")
	require.NoError(t, err)
	assert.Equal(t, []string{"id_item", "qt_consumo"}, table.Columns)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "20", table.Cell(1, 1))
}

func TestReadCSV_SemicolonLatin1(t *testing.T) {
	raw := []byte("ds_material_hospital;qt_consumo\nAgulha n\xba 5;1.234,5\n")
	table, err := ReadCSV(bytes.NewReader(raw), "estoque.csv")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Agulha nº 5", table.Cell(0, 0))
	assert.Equal(t, "1.234,5", table.Cell(0, 1))
}

func TestReadCSV_BOMAndTabs(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\ufeffid_item\tqt_estoque\n7\t3\n"), "mem")
	require.NoError(t, err)
	assert.Equal(t, "id_item", table.Columns[0])
	assert.Equal(t, "3", table.Cell(0, 1))
}

func TestReadCSV_Empty(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(""), "mem")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestReadFile_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("id_item,custo_total\n1,100\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := writeFile(t, t.TempDir(), "df_analise.csv.gz", buf.Bytes())
	table, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "100", table.Cell(0, 1))
}

func TestReadFile_Unsupported(t *testing.T) {
	p := writeFile(t, t.TempDir(), "dados.json", []byte("{}"))
	_, err := ReadFile(p)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	in := &schema.Table{
		Columns: []string{"id_item", "ds_material_hospital", "qt_consumo"},
		Rows: [][]string{
			{"1", "Luva", "10"},
			{"2", "Seringa", "20"},
		},
	}
	for _, name := range []string{"out.csv", "out.csv.gz", "out.xlsx"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(in, p))

			out, err := ReadFile(p)
			require.NoError(t, err)
			assert.Equal(t, in.Columns, out.Columns)
			assert.Equal(t, in.Rows, out.Rows)
		})
	}
}

func TestFileSource_FirstExisting(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "estoque.csv", []byte("id_item\n1\n"))

	src := &FileSource{Paths: []string{filepath.Join(dir, "df_analise.csv.gz"), p}}
	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p, table.Source)

	src = &FileSource{Paths: []string{filepath.Join(dir, "missing.csv")}}
	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDirSource_MergesByHeader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", []byte("id_item,qt_consumo\n1,10\n"))
	writeFile(t, dir, "b.csv", []byte("QT_CONSUMO;id_item;custo_total\n20;2;300\n"))
	writeFile(t, dir, "notes.md", []byte("ignored"))

	src := &DirSource{Dir: dir, Workers: 2}
	table, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"id_item", "qt_consumo", "custo_total"}, table.Columns)
	assert.Equal(t, [][]string{
		{"1", "10", ""},
		{"2", "20", "300"},
	}, table.Rows)
}

func TestDirSource_NoFiles(t *testing.T) {
	_, err := (&DirSource{Dir: t.TempDir()}).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDirSource_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", []byte("id_item\n1\n"))
	writeFile(t, dir, "b.csv.gz", []byte("not gzip"))

	_, err := (&DirSource{Dir: dir, Workers: 3}).Load(context.Background())
	assert.Error(t, err)
}

type stubSource struct {
	name  string
	table *schema.Table
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Load(ctx context.Context) (*schema.Table, error) {
	s.calls++
	return s.table, s.err
}

func TestLoader_FallsBack(t *testing.T) {
	broken := &stubSource{name: "file", err: errors.New("boom")}
	empty := &stubSource{name: "dir", table: &schema.Table{Columns: []string{"id_item"}}}
	good := &stubSource{name: "synthetic", table: &schema.Table{Columns: []string{"id_item"}, Rows: [][]string{{"1"}}}}
	unused := &stubSource{name: "postgres"}

	table, err := NewLoader(broken, empty, good, unused).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "synthetic", table.Source)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 0, unused.calls)
}

func TestLoader_NothingAvailable(t *testing.T) {
	_, err := NewLoader(&stubSource{name: "file", err: errors.New("boom")}).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestLoader_LoadDataset(t *testing.T) {
	ds, err := NewLoader(NewSynthetic(20, 42)).LoadDataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20*12, len(ds.Records))
	assert.True(t, ds.HasDate())
	assert.NotEmpty(t, ds.Fingerprint)
}

func TestSynthetic_Deterministic(t *testing.T) {
	a := NewSynthetic(50, 42).Generate()
	b := NewSynthetic(50, 42).Generate()
	c := NewSynthetic(50, 7).Generate()

	assert.Equal(t, a.Rows, b.Rows)
	assert.NotEqual(t, a.Rows, c.Rows)
	assert.Equal(t, 50*12, a.Len())
	assert.Equal(t, "1000", a.Cell(0, 0))
	assert.Equal(t, "2024-01-01", a.Cell(0, 3))
	assert.Equal(t, "2024-12-01", a.Cell(11, 3))

	groups := map[string]bool{}
	for i := 0; i < a.Len(); i++ {
		groups[a.Cell(i, 2)] = true
	}
	for g := range groups {
		assert.Contains(t, SyntheticGroups, g)
	}
}

func TestStorageSource_NewestObject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "exports"), 0o755))
	older := writeFile(t, filepath.Join(root, "exports"), "old.csv", []byte("id_item\n1\n"))
	newer := writeFile(t, filepath.Join(root, "exports"), "new.csv", []byte("id_item\n2\n3\n"))
	writeFile(t, filepath.Join(root, "exports"), "readme.txt.bak", []byte("x"))

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	src := &StorageSource{
		Client:      storage.NewWithBackend(cmstorage.NewLocalFilesystemBackend(root)),
		Prefix:      "exports",
		DownloadDir: t.TempDir(),
	}
	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "storage:exports/new.csv", table.Source)
	assert.Equal(t, 2, table.Len())
}

func TestStorageSource_ExplicitKey(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "estoque.csv", []byte("id_item\n9\n"))

	src := &StorageSource{
		Client:      storage.NewWithBackend(cmstorage.NewLocalFilesystemBackend(root)),
		Key:         "estoque.csv",
		DownloadDir: t.TempDir(),
	}
	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9", table.Cell(0, 0))
}

func TestNewestSupported(t *testing.T) {
	now := time.Now()
	_, ok := newestSupported([]storage.ObjectInfo{{Key: "a.json", LastModified: now}})
	assert.False(t, ok)

	got, ok := newestSupported([]storage.ObjectInfo{
		{Key: "a.csv", LastModified: now.Add(-time.Minute)},
		{Key: "b.xlsx", LastModified: now},
		{Key: "c.pdf", LastModified: now.Add(time.Minute)},
	})
	require.True(t, ok)
	assert.Equal(t, "b.xlsx", got.Key)
}

type fakeDownloader struct {
	path string
	opts drive.DownloadOptions
}

func (f *fakeDownloader) DownloadLatest(ctx context.Context, opts drive.DownloadOptions) (string, error) {
	f.opts = opts
	if f.path == "" {
		return "", drive.ErrNoFile
	}
	return f.path, nil
}

func TestDriveSource(t *testing.T) {
	p := writeFile(t, t.TempDir(), "export.csv", []byte("id_item\n5\n"))
	dl := &fakeDownloader{path: p}

	src := &DriveSource{Downloader: dl, FolderPath: "Hospital/Estoque", DownloadDir: "/tmp/x"}
	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "drive:export.csv", table.Source)
	assert.Equal(t, "Hospital/Estoque", dl.opts.FolderPath)
	assert.Equal(t, SupportedExtensions, dl.opts.Extensions)

	_, err = (&DriveSource{Downloader: &fakeDownloader{}}).Load(context.Background())
	assert.ErrorIs(t, err, drive.ErrNoFile)
}

type fakeRepo struct {
	table *schema.Table
	limit int
}

func (f *fakeRepo) ListColumns(ctx context.Context, table string) ([]string, error) {
	return f.table.Columns, nil
}

func (f *fakeRepo) LoadTable(ctx context.Context, table string, limit int) (*schema.Table, error) {
	f.limit = limit
	return f.table, nil
}

func TestPostgresSource(t *testing.T) {
	repo := &fakeRepo{table: &schema.Table{Columns: []string{"id_item"}, Rows: [][]string{{"1"}}}}
	src := &PostgresSource{Repo: repo, Table: "movimentacao_estoque", MaxRows: 100}

	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "postgres:movimentacao_estoque", table.Source)
	assert.Equal(t, 100, repo.limit)
}
