package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/filmbuff/marquee/pkg/types"
)

// LoadFile reads the movie dataset at path, dispatching on the file
// extension. A missing or unreadable file is an error (callers treat it as
// fatal at startup); individual malformed rows are skipped with a warning.
func LoadFile(path string) ([]types.Movie, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".parquet":
		return loadParquet(path)
	default:
		return nil, fmt.Errorf("catalog: unsupported dataset format %q (want .csv or .parquet)", filepath.Ext(path))
	}
}

// loadCSV reads a header-indexed CSV dataset. Columns are located by name
// so column order and extra columns don't matter. Rows with a bad id or an
// unparsable numeric field are skipped, not fatal.
func loadCSV(path string) ([]types.Movie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read header of %s: %w", path, err)
	}
	idx := headerIndex(header)

	for _, col := range []string{"id", "title"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("catalog: missing column %s in %s", col, path)
		}
	}

	var movies []types.Movie
	skipped := 0
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping row %d of %s: %v", rowNum, path, err)
			skipped++
			continue
		}

		m, err := movieFromRow(row, idx)
		if err != nil {
			log.Printf("Warning: skipping row %d of %s: %v", rowNum, path, err)
			skipped++
			continue
		}
		movies = append(movies, m)
	}

	log.Printf("Loaded %d movies from %s (%d rows skipped)", len(movies), path, skipped)
	return movies, nil
}

// movieFromRow converts one CSV record. Empty optional fields degrade to
// zero values; a malformed required or numeric field rejects the row.
func movieFromRow(row []string, idx map[string]int) (types.Movie, error) {
	id, err := fieldInt(row, idx, "id")
	if err != nil {
		return types.Movie{}, err
	}
	if id <= 0 {
		return types.Movie{}, fmt.Errorf("invalid id %d", id)
	}
	title := strings.TrimSpace(fieldString(row, idx, "title"))
	if title == "" {
		return types.Movie{}, fmt.Errorf("empty title for id %d", id)
	}

	year, err := fieldYear(row, idx, "release_year")
	if err != nil {
		return types.Movie{}, err
	}
	rating, err := fieldFloat(row, idx, "rating")
	if err != nil {
		return types.Movie{}, err
	}
	voteCount, err := fieldInt(row, idx, "vote_count")
	if err != nil {
		return types.Movie{}, err
	}
	popularity, err := fieldFloat(row, idx, "popularity")
	if err != nil {
		return types.Movie{}, err
	}

	return types.Movie{
		ID:          id,
		Title:       title,
		Genres:      parseList(fieldString(row, idx, "genres")),
		Director:    strings.TrimSpace(fieldString(row, idx, "director")),
		Cast:        parseList(fieldString(row, idx, "cast")),
		Keywords:    parseList(fieldString(row, idx, "keywords")),
		ReleaseYear: year,
		Rating:      rating,
		VoteCount:   voteCount,
		Popularity:  popularity,
		Overview:    fieldString(row, idx, "overview"),
	}, nil
}

// parquetMovie mirrors the dataset's Parquet schema. List-valued columns
// are stored as encoded strings exactly as in the CSV form.
type parquetMovie struct {
	ID          int64   `parquet:"id"`
	Title       string  `parquet:"title"`
	Genres      string  `parquet:"genres,optional"`
	Director    string  `parquet:"director,optional"`
	Cast        string  `parquet:"cast,optional"`
	Keywords    string  `parquet:"keywords,optional"`
	ReleaseYear int32   `parquet:"release_year,optional"`
	Rating      float64 `parquet:"rating,optional"`
	VoteCount   int64   `parquet:"vote_count,optional"`
	Popularity  float64 `parquet:"popularity,optional"`
	Overview    string  `parquet:"overview,optional"`
}

// loadParquet reads a Parquet dataset in batches through the generic
// reader, applying the same per-row tolerance as the CSV path.
func loadParquet(path string) ([]types.Movie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open dataset: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[parquetMovie](pf)
	defer reader.Close()

	var movies []types.Movie
	skipped := 0
	rows := make([]parquetMovie, 128)
	for {
		n, err := reader.Read(rows)
		for _, r := range rows[:n] {
			if r.ID <= 0 || strings.TrimSpace(r.Title) == "" {
				skipped++
				log.Printf("Warning: skipping parquet row with id=%d title=%q", r.ID, r.Title)
				continue
			}
			movies = append(movies, types.Movie{
				ID:          int(r.ID),
				Title:       strings.TrimSpace(r.Title),
				Genres:      parseList(r.Genres),
				Director:    strings.TrimSpace(r.Director),
				Cast:        parseList(r.Cast),
				Keywords:    parseList(r.Keywords),
				ReleaseYear: int(r.ReleaseYear),
				Rating:      r.Rating,
				VoteCount:   int(r.VoteCount),
				Popularity:  r.Popularity,
				Overview:    r.Overview,
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: failed to read parquet %s: %w", path, err)
		}
	}

	log.Printf("Loaded %d movies from %s (%d rows skipped)", len(movies), path, skipped)
	return movies, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return idx
}

func fieldString(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func fieldInt(row []string, idx map[string]int, col string) (int, error) {
	val := strings.TrimSpace(fieldString(row, idx, col))
	if val == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", col, val)
	}
	return parsed, nil
}

func fieldFloat(row []string, idx map[string]int, col string) (float64, error) {
	val := strings.TrimSpace(fieldString(row, idx, col))
	if val == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", col, val)
	}
	return parsed, nil
}

// fieldYear accepts a bare year ("1999") or a date ("1999-05-12") and keeps
// the year part.
func fieldYear(row []string, idx map[string]int, col string) (int, error) {
	val := strings.TrimSpace(fieldString(row, idx, col))
	if val == "" {
		return 0, nil
	}
	if len(val) > 4 && val[4] == '-' {
		val = val[:4]
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", col, val)
	}
	return parsed, nil
}

// parseList decodes a list-valued dataset field. Accepted encodings, tried
// in order: a JSON string array, a JSON array of {"name": ...} objects, a
// pipe-delimited string, a comma-delimited string.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err == nil {
			return cleanList(names)
		}
		var objs []struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(raw), &objs); err == nil {
			names = names[:0]
			for _, o := range objs {
				names = append(names, o.Name)
			}
			return cleanList(names)
		}
	}

	sep := "|"
	if !strings.Contains(raw, "|") {
		sep = ","
	}
	return cleanList(strings.Split(raw, sep))
}

func cleanList(items []string) []string {
	out := items[:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
