package series

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
)

const (
	GapTypeChapter = "chapter"
	GapTypeVolume  = "volume"
)

// Gap is a run of missing whole numbers in one series' numbering.
type Gap struct {
	Series string `json:"series"`
	Type   string `json:"type"`
	Gaps   []int  `json:"gaps"`
	Count  int    `json:"count"`
}

// GapsReport finds integer jumps in each series' chapter and volume
// sequences. Fractional neighbors (like chapter 10.5) never produce gaps.
func (svc *Service) GapsReport(ctx context.Context) ([]*Gap, error) {
	type numberRow struct {
		Series  string   `bun:"series"`
		Volume  *float64 `bun:"volume"`
		Chapter *float64 `bun:"chapter"`
	}

	rows := []numberRow{}
	err := svc.db.NewSelect().
		TableExpr("comics").
		Column("series", "volume", "chapter").
		Where("series_id IS NOT NULL").
		Order("series ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	chapters := map[string][]float64{}
	volumes := map[string]map[float64]bool{}
	names := []string{}
	for _, row := range rows {
		if _, seen := chapters[row.Series]; !seen {
			names = append(names, row.Series)
			chapters[row.Series] = nil
			volumes[row.Series] = map[float64]bool{}
		}
		if row.Chapter != nil {
			chapters[row.Series] = append(chapters[row.Series], *row.Chapter)
		}
		if row.Volume != nil {
			volumes[row.Series][*row.Volume] = true
		}
	}

	report := []*Gap{}
	for _, name := range names {
		if g := findGaps(chapters[name]); len(g) > 0 {
			report = append(report, &Gap{Series: name, Type: GapTypeChapter, Gaps: g, Count: len(g)})
		}

		vols := make([]float64, 0, len(volumes[name]))
		for v := range volumes[name] {
			vols = append(vols, v)
		}
		if g := findGaps(vols); len(g) > 0 {
			report = append(report, &Gap{Series: name, Type: GapTypeVolume, Gaps: g, Count: len(g)})
		}
	}
	return report, nil
}

func findGaps(numbers []float64) []int {
	if len(numbers) < 2 {
		return nil
	}
	sort.Float64s(numbers)

	var gaps []int
	for i := 0; i < len(numbers)-1; i++ {
		curr, next := numbers[i], numbers[i+1]
		if next-curr <= 1 {
			continue
		}
		if curr != math.Trunc(curr) || next != math.Trunc(next) {
			continue
		}
		for g := int(curr) + 1; g < int(next); g++ {
			gaps = append(gaps, g)
		}
	}
	return gaps
}
